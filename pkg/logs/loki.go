package logs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/config"
)

// lokiWriter pushes every slog JSON line to Loki as its own entry.
type lokiWriter struct {
	url      string
	username string
	password string
	labels   map[string]string
	client   *http.Client
	now      func() time.Time
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func newLokiHandler(cfg *config.Config, level slog.Level) slog.Handler {
	loki := cfg.Logging.Output.Loki
	lw := &lokiWriter{
		url:      strings.TrimRight(loki.Endpoint, "/") + "/loki/api/v1/push",
		username: loki.Username,
		password: loki.Password,
		labels: map[string]string{
			"service": cfg.Observability.ServiceName,
			"env":     cfg.Server.Environment,
			"clinic":  cfg.Clinic.Name,
		},
		client: &http.Client{Timeout: 3 * time.Second},
		now:    time.Now,
	}
	return slog.NewJSONHandler(lw, &slog.HandlerOptions{Level: level})
}

func (lw *lokiWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	ts := strconv.FormatInt(lw.now().UnixNano(), 10)

	body, err := json.Marshal(lokiPush{Streams: []lokiStream{{
		Stream: lw.labels,
		Values: [][2]string{{ts, line}},
	}}})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, lw.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if lw.username != "" {
		req.SetBasicAuth(lw.username, lw.password)
	}

	resp, err := lw.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("loki push: %s", resp.Status)
	}
	return len(p), nil
}
