package main

import (
	"net/url"
	"strings"
)

// connectorFactories are tried in order; the first that accepts the URL wins.
var connectorFactories = []ConnectorFactory{
	&FTPConnectorFactory{},
	&SFTPConnectorFactory{},
}

func getConnectorFactory(u *url.URL) ConnectorFactory {
	for _, factory := range connectorFactories {
		if factory.Accept(u) {
			return factory
		}
	}
	return nil
}

// supportedSchemes lists the registered protocols for error messages.
func supportedSchemes() string {
	names := make([]string, 0, len(connectorFactories))
	for _, factory := range connectorFactories {
		names = append(names, factory.Name())
	}
	return strings.Join(names, ", ")
}
