//go:build protogen

package contacts

import (
	"context"
	"log/slog"
	"time"

	"github.com/vibeseat/vibeseat/libs/grpcx"
	authv1 "github.com/vibeseat/vibeseat/protos/gen/auth/v1"
)

type grpcProvider struct {
	client authv1.AuthServiceClient
}

func NewDirectoryProvider(logger *slog.Logger, domain string, addr string) (Provider, error) {
	if addr == "" {
		return NewStaticProvider(domain), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc contact provider unavailable, using static fallback", "err", err)
		return NewStaticProvider(domain), nil
	}

	logger.Info("grpc contact provider enabled", "addr", addr)
	return &grpcProvider{client: authv1.NewAuthServiceClient(conn)}, nil
}

func (p *grpcProvider) Lookup(ctx context.Context, userID string) (Contact, error) {
	resp, err := p.client.GetContact(ctx, &authv1.ContactRequest{UserId: userID})
	if err != nil {
		return Contact{}, err
	}
	return Contact{
		Email: resp.GetEmail(),
		Phone: resp.GetPhone(),
	}, nil
}
