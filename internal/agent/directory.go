package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Directory reads agents from the registry. It never returns errors: transport and
// decode failures are logged and surface as an empty list or a nil agent.
type Directory struct {
	log     zerolog.Logger
	baseURL string
	client  *http.Client
}

// NewDirectory builds a registry client rooted at baseURL.
func NewDirectory(log zerolog.Logger, baseURL string) *Directory {
	return &Directory{
		log:     log.With().Str("component", "directory").Logger(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// List returns the agents currently marked active.
func (d *Directory) List(ctx context.Context) []Agent {
	var body json.RawMessage
	if ok, err := d.get(ctx, "/api/agents", &body); err != nil || !ok {
		if err != nil {
			d.log.Warn().Err(err).Msg("list agents failed")
		}
		return []Agent{}
	}

	var all []Agent
	if err := decodeEnvelope(body, "agents", &all); err != nil {
		d.log.Warn().Err(err).Msg("decode agent list failed")
		return []Agent{}
	}

	active := make([]Agent, 0, len(all))
	for _, a := range all {
		if a.Active() {
			active = append(active, a)
		}
	}
	return active
}

// Get fetches one agent's detailed state; nil when absent or unreachable.
func (d *Directory) Get(ctx context.Context, id string) *Agent {
	var body json.RawMessage
	ok, err := d.get(ctx, "/api/agents/"+url.PathEscape(id), &body)
	if err != nil {
		d.log.Warn().Err(err).Str("agent", id).Msg("get agent failed")
		return nil
	}
	if !ok {
		return nil
	}

	var a Agent
	if err := decodeEnvelope(body, "agent", &a); err != nil {
		d.log.Warn().Err(err).Str("agent", id).Msg("decode agent failed")
		return nil
	}
	if a.ID == "" {
		a.ID = id
	}
	return &a
}

// get returns ok=false without error on 404.
func (d *Directory) get(ctx context.Context, path string, out *json.RawMessage) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return false, fmt.Errorf("read body: %w", err)
	}
	*out = raw
	return true, nil
}

// decodeEnvelope accepts either {"<key>": value} or the bare value.
func decodeEnvelope(raw []byte, key string, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err == nil {
			if inner, ok := env[key]; ok {
				raw = inner
			}
		}
	}
	return json.Unmarshal(raw, out)
}
