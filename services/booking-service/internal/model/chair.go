package model

import (
	"fmt"
	"strings"
	"time"
)

// ChairStatus is the operational state of a chair. Only active chairs are
// eligible for slot projection.
type ChairStatus string

const (
	ChairActive      ChairStatus = "active"
	ChairMaintenance ChairStatus = "maintenance"
	ChairInactive    ChairStatus = "inactive"
)

func ParseChairStatus(raw string) (ChairStatus, error) {
	switch ChairStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ChairActive:
		return ChairActive, nil
	case ChairMaintenance:
		return ChairMaintenance, nil
	case ChairInactive:
		return ChairInactive, nil
	default:
		return "", fmt.Errorf("unknown chair status %q", raw)
	}
}

// Chair is a bookable massage chair.
type Chair struct {
	ID        string
	Name      string
	Location  string
	Status    ChairStatus
	CreatedAt time.Time
}
