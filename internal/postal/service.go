package postal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

// ServiceParser talks to a remote postal classifier over HTTP. The service
// exposes POST /split taking {"query": ...} and answering with an array of
// component maps, most likely parse first.
type ServiceParser struct {
	endpoint string
	client   *http.Client
	log      *logrus.Entry
}

// NewServiceParser builds a parser against the given base URL.
func NewServiceParser(endpoint string) *ServiceParser {
	return &ServiceParser{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logrus.WithField("component", "postal"),
	}
}

// Parse classifies raw into address components. Connection failures and
// non-200 answers degrade to a nil result; the service being down must
// never fail a geocoding request.
func (s *ServiceParser) Parse(ctx context.Context, raw string) (geo.Components, error) {
	body, err := json.Marshal(map[string]string{"query": raw})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/split", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithError(err).Debug("postal service unreachable, degrading to raw-text matching")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.WithField("status", resp.StatusCode).Debug("postal service rejected query")
		return nil, nil
	}

	var parses []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&parses); err != nil || len(parses) == 0 {
		return nil, nil
	}

	comps := geo.Components{}
	for key, value := range parses[0] {
		comps.Set(key, value)
	}
	if len(comps) == 0 {
		return nil, nil
	}
	return comps, nil
}
