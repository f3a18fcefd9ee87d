package storage

import (
	"fmt"
	"sync"

	storageConfig "github.com/tidewind/aircast/internal/adapter/storage/config"
	coreConfig "github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/support/util/configbinder"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

// AdapterFactory builds a Connection from a decoded StorageConfig and its
// configured name.
type AdapterFactory func(cfg storageConfig.StorageConfig, name string) (Connection, error)

var (
	factoryRegistry = make(map[string]AdapterFactory)
	factoryMutex    sync.RWMutex
)

// RegisterAdapter registers an AdapterFactory for the given storage type.
// Backend packages register themselves from their module files, so importing a
// backend is enough to make its type available.
func RegisterAdapter(storageType string, factory AdapterFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	if _, exists := factoryRegistry[storageType]; exists {
		logger.Warnf("Storage adapter for type '%s' already registered. Overwriting.", storageType)
	}
	factoryRegistry[storageType] = factory
}

// getAdapterFactory retrieves the AdapterFactory for the given storage type.
func getAdapterFactory(storageType string) (AdapterFactory, error) {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()
	factory, ok := factoryRegistry[storageType]
	if !ok {
		return nil, fmt.Errorf("no storage adapter registered for type: %s", storageType)
	}
	return factory, nil
}

// ConfigProvider resolves named storage connections from the application
// configuration's "adapters.storage" section, caching established connections.
type ConfigProvider struct {
	cfg         *coreConfig.Config
	connections map[string]Connection
	mu          sync.RWMutex
}

// NewConfigProvider creates a Provider backed by the application configuration.
func NewConfigProvider(cfg *coreConfig.Config) Provider {
	return &ConfigProvider{
		cfg:         cfg,
		connections: make(map[string]Connection),
	}
}

// GetConnection retrieves an existing connection or establishes a new one from
// the configuration entry with the given name.
func (p *ConfigProvider) GetConnection(name string) (Connection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring the lock.
	if conn, ok = p.connections[name]; ok {
		return conn, nil
	}

	storageCfg, err := p.decodeStorageConfig(name)
	if err != nil {
		return nil, err
	}

	factory, err := getAdapterFactory(storageCfg.Type)
	if err != nil {
		return nil, fmt.Errorf("storage connection '%s': %w", name, err)
	}

	newConn, err := factory(storageCfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create '%s' storage adapter for '%s': %w", storageCfg.Type, name, err)
	}

	p.connections[name] = newConn
	logger.Debugf("Created new '%s' storage connection '%s'.", storageCfg.Type, name)
	return newConn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *ConfigProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing storage connections: %v", errs)
	}
	logger.Debugf("All storage connections closed.")
	return nil
}

// decodeStorageConfig extracts and decodes the named entry under
// "adapters.storage" in the application configuration.
func (p *ConfigProvider) decodeStorageConfig(name string) (storageConfig.StorageConfig, error) {
	var storageCfg storageConfig.StorageConfig

	rawStorage, ok := p.cfg.Aircast.AdapterConfigs["storage"]
	if !ok {
		return storageCfg, fmt.Errorf("no 'storage' section under adapters configuration")
	}
	storageMap, ok := rawStorage.(map[string]interface{})
	if !ok {
		return storageCfg, fmt.Errorf("invalid 'storage' configuration format: expected map[string]interface{}")
	}
	namedConfig, ok := storageMap[name]
	if !ok {
		return storageCfg, fmt.Errorf("storage configuration for name '%s' not found", name)
	}

	properties, ok := namedConfig.(map[string]interface{})
	if !ok {
		return storageCfg, fmt.Errorf("invalid storage configuration for '%s': expected map[string]interface{}", name)
	}
	if err := configbinder.BindProperties(properties, &storageCfg); err != nil {
		return storageCfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return storageCfg, nil
}
