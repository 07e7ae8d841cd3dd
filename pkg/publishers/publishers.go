package publishers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/webdriver-transport/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "gcp_pubsub"
	TypeHTTP   = "http"
	TypeLog    = "log"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// AWSCredentials optionally pins static keys instead of the default AWS credential chain.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// PubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry holds the sink definitions read from a sinks file, in file order.
type ConfigRegistry struct {
	mu    sync.RWMutex
	sinks []PublisherConfig
	idx   map[string]int
}

// LoadRegistry reads a YAML or JSON sinks file. Every entry is normalized and
// checked against what its sink can actually dispatch; the first bad entry
// fails the whole file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sinks file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	file, err := decodeSinksFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("sinks file declares no publishers")
	}

	reg := &ConfigRegistry{idx: make(map[string]int, len(file.Publishers))}
	for i, cfg := range file.Publishers {
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: duplicate id %q", i, cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.sinks)
		reg.sinks = append(reg.sinks, cfg)
	}
	return reg, nil
}

// decodeSinksFile picks the decoder from the file extension. Without one, a
// document starting with '{' is read as JSON and anything else as YAML.
func decodeSinksFile(raw []byte, ext string) (configFile, error) {
	format := strings.TrimPrefix(strings.ToLower(ext), ".")
	if format == "" {
		format = "yaml"
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			format = "json"
		}
	}

	var (
		file configFile
		err  error
	)
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(raw, &file)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	default:
		return configFile{}, fmt.Errorf("sinks file extension %q not supported (want .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return configFile{}, fmt.Errorf("decode %s sinks file: %w", format, err)
	}
	return file, nil
}

func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.SQS != nil {
		cfg.SQS.QueueURL = strings.TrimSpace(cfg.SQS.QueueURL)
		cfg.SQS.Region = strings.TrimSpace(cfg.SQS.Region)
	}
	if cfg.SNS != nil {
		cfg.SNS.TopicARN = strings.TrimSpace(cfg.SNS.TopicARN)
		cfg.SNS.Region = strings.TrimSpace(cfg.SNS.Region)
		if cfg.SNS.Region == "" {
			cfg.SNS.Region = arnRegion(cfg.SNS.TopicARN)
		}
	}
	if cfg.PubSub != nil {
		cfg.PubSub.ProjectID = strings.TrimSpace(cfg.PubSub.ProjectID)
		cfg.PubSub.Topic = strings.TrimSpace(cfg.PubSub.Topic)
		cfg.PubSub.CredentialsFile = strings.TrimSpace(cfg.PubSub.CredentialsFile)
		// projects/<project>/topics/<topic>
		if parts := strings.Split(cfg.PubSub.Topic, "/"); len(parts) == 4 && parts[0] == "projects" && parts[2] == "topics" {
			if cfg.PubSub.ProjectID == "" {
				cfg.PubSub.ProjectID = parts[1]
			}
			if cfg.PubSub.ProjectID == parts[1] {
				cfg.PubSub.Topic = parts[3]
			}
		}
	}
	if cfg.HTTP != nil {
		cfg.HTTP.URL = strings.TrimSpace(cfg.HTTP.URL)
		cfg.HTTP.Method = strings.ToUpper(strings.TrimSpace(cfg.HTTP.Method))
		if cfg.HTTP.Method == "" {
			cfg.HTTP.Method = httpDefaultMethod
		}
		if cfg.HTTP.TimeoutSeconds <= 0 {
			cfg.HTTP.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		headers := make(map[string]string, len(cfg.HTTP.Headers))
		for k, v := range cfg.HTTP.Headers {
			if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
				headers[k] = v
			}
		}
		cfg.HTTP.Headers = headers
	}
}

// validate checks that the entry names a known sink, carries exactly the
// block that sink reads, and that the block can be dispatched.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	blocks := map[string]bool{
		TypeSQS:    cfg.SQS != nil,
		TypeSNS:    cfg.SNS != nil,
		TypePubSub: cfg.PubSub != nil,
		TypeHTTP:   cfg.HTTP != nil,
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("publisher %q: type is required", cfg.ID)
	case TypeSQS, TypeSNS, TypePubSub, TypeHTTP, TypeLog:
	default:
		return fmt.Errorf("publisher %q: unknown type %q", cfg.ID, cfg.Type)
	}
	for typ, set := range blocks {
		if set && typ != cfg.Type {
			return fmt.Errorf("publisher %q: %s block set on a %s sink", cfg.ID, typ, cfg.Type)
		}
	}
	if present, needed := blocks[cfg.Type]; needed && !present {
		return fmt.Errorf("publisher %q: %s block is required", cfg.ID, cfg.Type)
	}

	var err error
	switch cfg.Type {
	case TypeSQS:
		err = cfg.SQS.validate()
	case TypeSNS:
		err = cfg.SNS.validate()
	case TypePubSub:
		err = cfg.PubSub.validate()
	case TypeHTTP:
		err = cfg.HTTP.validate()
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (c *SQSPublisherConfig) validate() error {
	u, err := url.Parse(c.QueueURL)
	if c.QueueURL == "" || err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("sqs.uri %q is not a queue url", c.QueueURL)
	}
	if c.Region == "" {
		return errors.New("sqs.region is required")
	}
	return c.Credentials.validate("sqs")
}

func (c *SNSPublisherConfig) validate() error {
	if !strings.HasPrefix(c.TopicARN, "arn:") || !strings.Contains(c.TopicARN, ":sns:") {
		return fmt.Errorf("sns.topic_arn %q is not an sns topic arn", c.TopicARN)
	}
	if c.Region == "" {
		return errors.New("sns.region is required")
	}
	return c.Credentials.validate("sns")
}

func (c *PubSubPublisherConfig) validate() error {
	if c.ProjectID == "" {
		return errors.New("pubsub.project_id is required")
	}
	if c.Topic == "" || strings.Contains(c.Topic, "/") {
		return fmt.Errorf("pubsub.topic %q must be a topic id in project %q", c.Topic, c.ProjectID)
	}
	return nil
}

// validate rejects sinks the executor would refuse or silently downgrade.
func (c *HTTPPublisherConfig) validate() error {
	if !httpclient.SupportedMethod(c.Method) {
		return fmt.Errorf("http.method %q not supported (want GET, POST, PUT or DELETE)", c.Method)
	}
	if c.URL == "" || httpclient.StripCredentials(c.URL) == "" {
		return errors.New("http.url is not a valid url")
	}
	return nil
}

func (c *AWSCredentials) validate(block string) error {
	if c == nil {
		return nil
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("%s.credentials needs both access_key_id and secret_access_key", block)
	}
	return nil
}

// arnRegion returns the region field of arn:partition:service:region:account:resource.
func arnRegion(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 {
		return ""
	}
	return parts[3]
}

// ByID returns the sink definition with the given id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.sinks[i], true
}

// Enabled returns the enabled sinks in file order.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PublisherConfig
	for _, cfg := range r.sinks {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
