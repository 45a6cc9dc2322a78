package adapter

import (
	"github.com/hashicorp/go-plugin"
)

// ServeConnector serves impl to the host. It blocks until the host kills the plugin.
func ServeConnector(impl Connector) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			CONNECTOR: &ConnectorPlugin{Impl: impl},
		},
	})
}

// ServeFileReader serves impl to the host. It blocks until the host kills the plugin.
func ServeFileReader(impl FileReader) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			FILE_READER: &FileReaderPlugin{Impl: impl},
		},
	})
}
