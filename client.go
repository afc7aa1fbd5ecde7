package mixtrack

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"mixtrack/internal/providers"
	"mixtrack/internal/store"
	"mixtrack/internal/transport"
)

// Version is reported as $lib_version on every outgoing event.
const Version = "0.3.0"

const (
	libName      = "go"
	devicePrefix = "$device:"
)

// Client is the tracking client: it owns the persisted identity record, the
// in-memory super-property overlay and the transport, and exposes the people
// and group surfaces as sub-objects sharing this single core.
type Client struct {
	conf    *Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	store   *store.Store
	overlay *store.Overlay
	api     transport.SenderInterface

	machineID func() (string, error)

	People *People
	Groups *Groups
}

func NewLogger(conf *Config) (providers.Logger, error) {
	return providers.NewLogProvider(&conf.Logger)
}

func NewMetrics(conf *Config) providers.MetricsProviderInterface {
	return providers.NewMetricsProvider(&conf.Metrics)
}

func NewSender(conf *Config, logger providers.Logger, metrics providers.MetricsProviderInterface) transport.SenderInterface {
	return transport.NewAPIClient(conf.API, logger, metrics)
}

func NewPersistentStore(conf *Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *store.Store {
	path := conf.Persistence.FilePath
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		appDir := conf.AppName
		if appDir == "" {
			appDir = "mixtrack"
		}
		path = filepath.Join(base, appDir, fmt.Sprintf("mixtrack_%s.json", conf.Token))
	}
	return store.NewStore(path, logger, metrics)
}

func NewClient(conf *Config, logger providers.Logger, metrics providers.MetricsProviderInterface, st *store.Store, api transport.SenderInterface) (*Client, error) {
	if err := NewCnfValidator(conf).Validate(); err != nil {
		return nil, err
	}

	machineID := conf.MachineID
	if machineID == nil {
		machineID = machineid.ID
	}

	c := &Client{
		conf:      conf,
		logger:    logger,
		metrics:   metrics,
		store:     st,
		overlay:   store.NewOverlay(),
		api:       api,
		machineID: machineID,
	}
	c.People = &People{client: c}
	c.Groups = &Groups{client: c}

	c.registerInitialProperties()

	return c, nil
}

// registerInitialProperties seeds the anonymous device identity on first run
// and records the host platform as a persisted super property.
func (c *Client) registerInitialProperties() {
	_, hasID := c.store.DistinctID()
	_, hasDevice := c.store.Property("$device_id")

	initial := make(map[string]any)

	if !hasID || !hasDevice {
		id := c.deviceID()
		if !hasID {
			c.store.SetDistinctID(devicePrefix + id)
			initial["distinct_id"] = devicePrefix + id
		}
		if !hasDevice {
			initial["$device_id"] = id
		}
	}

	initial["$os"] = osName()
	c.store.Register(initial, nil)
}

// deviceID resolves the stable machine identifier, falling back to a random
// id when the host cannot provide one.
func (c *Client) deviceID() string {
	id, err := c.machineID()
	if err != nil || id == "" {
		c.logger.Warnf(providers.TypeApp, "failed to resolve machine id, using a random one: %v", err)
		return uuid.NewString()
	}
	return id
}

// identified reports whether a real, non-device identity is in place.
func (c *Client) identified() bool {
	id, ok := c.store.DistinctID()
	return ok && !strings.HasPrefix(id, devicePrefix)
}

// GetDistinctID returns the current identity, device-prefixed or not.
func (c *Client) GetDistinctID() (string, bool) {
	return c.store.DistinctID()
}

// GetProperty looks up a single super property, persistent layer first.
func (c *Client) GetProperty(key string) (any, bool) {
	if v, ok := c.store.Property(key); ok {
		return v, true
	}
	return c.overlay.Get(key)
}

// Registry exposes the metrics registry for mounting on a /metrics handler.
// Nil when metrics are disabled.
func (c *Client) Registry() *prometheus.Registry {
	return c.metrics.Registry()
}

// Close waits for pending persistence writes and releases the logger. The
// client must not be used afterwards.
func (c *Client) Close() {
	c.store.Close()
	c.logger.Close()
}

func osName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Mac OS X"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	case "ios":
		return "iOS"
	case "android":
		return "Android"
	default:
		return runtime.GOOS
	}
}
