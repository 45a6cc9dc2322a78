package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/adapter"
)

var pluginInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "mqc_plugin_info",
	Help: "Information about registered adapters",
}, []string{"plugin_name", "plugin_type", "plugin_version", "origin"})

const (
	ORIGIN_BUILTIN = "builtin"
	ORIGIN_PLUGIN  = "plugin"
)

type ConnectorFactory func() adapter.Connector
type FileReaderFactory func() adapter.FileReader

// PluginInfo describes a registered adapter.
type PluginInfo struct {
	Name        string
	Kind        string
	Origin      string
	Version     string
	Description string
	Path        string
}

// LoadedPlugin is a registered adapter, either linked in or running as a plugin process.
type LoadedPlugin struct {
	Info       PluginInfo
	Client     *plugin.Client
	connector  ConnectorFactory
	fileReader FileReaderFactory
}

// Registry manages the adapters available to the host.
type Registry struct {
	plugins map[string]*LoadedPlugin
	mutex   sync.RWMutex
}

var registry = NewRegistry()

// GetRegistry returns the global adapter registry.
func GetRegistry() *Registry {
	return registry
}

func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]*LoadedPlugin),
	}
}

func (r *Registry) register(lp *LoadedPlugin) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.plugins[lp.Info.Name]; exists {
		return fmt.Errorf("adapter %s already registered", lp.Info.Name)
	}
	r.plugins[lp.Info.Name] = lp

	pluginInfo.WithLabelValues(lp.Info.Name, lp.Info.Kind, lp.Info.Version, lp.Info.Origin).Set(1)
	logger.Info("Registered adapter",
		slog.String("name", lp.Info.Name),
		slog.String("kind", lp.Info.Kind),
		slog.String("origin", lp.Info.Origin),
		slog.String("version", lp.Info.Version))
	return nil
}

// RegisterConnector registers a connector linked into the host.
func (r *Registry) RegisterConnector(name string, factory ConnectorFactory) error {
	info := factory().Info()
	return r.register(&LoadedPlugin{
		Info: PluginInfo{
			Name:        name,
			Kind:        adapter.CONNECTOR,
			Origin:      ORIGIN_BUILTIN,
			Version:     info.Version,
			Description: info.Description,
		},
		connector: factory,
	})
}

// RegisterFileReader registers a file reader linked into the host.
func (r *Registry) RegisterFileReader(name string, factory FileReaderFactory) error {
	info := factory().Info()
	return r.register(&LoadedPlugin{
		Info: PluginInfo{
			Name:        name,
			Kind:        adapter.FILE_READER,
			Origin:      ORIGIN_BUILTIN,
			Version:     info.Version,
			Description: info.Description,
		},
		fileReader: factory,
	})
}

// LoadPlugin starts the plugin executable at pluginPath and registers the
// adapter it serves under the base name of the executable.
func (r *Registry) LoadPlugin(pluginPath string) error {
	logger.Info("Loading plugin", slog.String("path", pluginPath))

	pluginName := filepath.Base(pluginPath)
	pluginName = strings.TrimSuffix(pluginName, filepath.Ext(pluginName))

	r.mutex.RLock()
	_, exists := r.plugins[pluginName]
	r.mutex.RUnlock()
	if exists {
		logger.Info("Plugin already loaded", slog.String("name", pluginName))
		return nil
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  adapter.Handshake,
		Plugins:          adapter.PluginMap(),
		Cmd:              exec.Command(pluginPath),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           logger.NewHCLogAdapter().Named(pluginName),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return fmt.Errorf("failed to connect to plugin %s: %w", pluginName, err)
	}

	lp := &LoadedPlugin{
		Info: PluginInfo{
			Name:   pluginName,
			Origin: ORIGIN_PLUGIN,
			Path:   pluginPath,
		},
		Client: client,
	}

	if raw, err := rpcClient.Dispense(adapter.CONNECTOR); err == nil {
		if c, ok := raw.(adapter.Connector); ok {
			info := c.Info()
			lp.Info.Kind = adapter.CONNECTOR
			lp.Info.Version = info.Version
			lp.Info.Description = info.Description
			lp.connector = func() adapter.Connector { return c }
		}
	} else if raw, err := rpcClient.Dispense(adapter.FILE_READER); err == nil {
		if fr, ok := raw.(adapter.FileReader); ok {
			info := fr.Info()
			lp.Info.Kind = adapter.FILE_READER
			lp.Info.Version = info.Version
			lp.Info.Description = info.Description
			lp.fileReader = func() adapter.FileReader { return fr }
		}
	}

	if lp.Info.Kind == "" {
		client.Kill()
		return fmt.Errorf("plugin %s serves neither a connector nor a file reader", pluginName)
	}

	if err := r.register(lp); err != nil {
		client.Kill()
		return err
	}
	return nil
}

// LoadPluginsFromDir loads all plugin executables from the specified directory.
// Files that are not executable are skipped.
func (r *Registry) LoadPluginsFromDir(pluginDir string) error {
	logger.Info("Loading plugins from directory", slog.String("dir", pluginDir))

	matches, err := filepath.Glob(filepath.Join(pluginDir, "*"))
	if err != nil {
		return fmt.Errorf("failed to list plugin files in %s: %w", pluginDir, err)
	}

	var loadErrors []error
	loadedCount := 0

	for _, pluginPath := range matches {
		if info, err := exec.LookPath(pluginPath); err != nil || info == "" {
			continue
		}

		if err := r.LoadPlugin(pluginPath); err != nil {
			logger.Error("Failed to load plugin", slog.String("path", pluginPath), slog.Any("error", err))
			loadErrors = append(loadErrors, err)
		} else {
			loadedCount++
		}
	}

	logger.Info("Loaded plugins from directory", slog.Int("count", loadedCount))
	return errors.Join(loadErrors...)
}

// GetPlugin returns a registered adapter by name.
func (r *Registry) GetPlugin(name string) (*LoadedPlugin, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, exists := r.plugins[name]
	return p, exists
}

// CreateConnector returns an instance of the named connector.
func (r *Registry) CreateConnector(name string) (adapter.Connector, error) {
	p, exists := r.GetPlugin(name)
	if !exists {
		return nil, fmt.Errorf("adapter %s not found", name)
	}
	if p.connector == nil {
		return nil, fmt.Errorf("adapter %s is a %s, not a connector", name, p.Info.Kind)
	}
	return p.connector(), nil
}

// CreateFileReader returns an instance of the named file reader.
func (r *Registry) CreateFileReader(name string) (adapter.FileReader, error) {
	p, exists := r.GetPlugin(name)
	if !exists {
		return nil, fmt.Errorf("adapter %s not found", name)
	}
	if p.fileReader == nil {
		return nil, fmt.Errorf("adapter %s is a %s, not a file reader", name, p.Info.Kind)
	}
	return p.fileReader(), nil
}

// ListPlugins returns the registered adapters ordered by name.
func (r *Registry) ListPlugins() []PluginInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	infos := make([]PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		infos = append(infos, p.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// CleanupAll shuts down all plugin processes and forgets every adapter.
func (r *Registry) CleanupAll() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	logger.Debug("Cleaning up all adapters")

	for name, p := range r.plugins {
		if p.Client != nil {
			logger.Info("Killing plugin", slog.String("name", name))
			p.Client.Kill()
		}
		pluginInfo.DeleteLabelValues(p.Info.Name, p.Info.Kind, p.Info.Version, p.Info.Origin)
	}

	r.plugins = make(map[string]*LoadedPlugin)
}
