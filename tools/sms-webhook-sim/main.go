// Command sms-webhook-sim is a stand-in SMS provider for local development.
// It accepts the webhook posts the notification service sends and prints
// each message instead of delivering it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/vibeseat/vibeseat/libs/runtime"
)

func main() {
	var (
		addr       = flag.String("addr", getenv("ADDR", ":9200"), "listen address")
		token      = flag.String("token", getenv("SMS_WEBHOOK_TOKEN", ""), "expected bearer token (empty disables the check)")
		failPrefix = flag.String("fail-prefix", getenv("FAIL_PREFIX", ""), "recipients starting with this prefix get a 502")
	)
	flag.Parse()

	logger := runtime.NewLogger("sms-webhook-sim")

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if *token != "" && r.Header.Get("Authorization") != "Bearer "+*token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var payload struct {
			To   string `json:"to"`
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(payload.To) == "" || strings.TrimSpace(payload.Body) == "" {
			http.Error(w, "to and body required", http.StatusBadRequest)
			return
		}

		if *failPrefix != "" && strings.HasPrefix(payload.To, *failPrefix) {
			logger.Warn("simulated delivery failure", "to", payload.To)
			http.Error(w, "simulated provider failure", http.StatusBadGateway)
			return
		}

		logger.Info("sms delivered", "to", payload.To, "body", payload.Body)
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("sms webhook sim listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
