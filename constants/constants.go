// Package constants resolves the environment-driven configuration
// shared by the CLI commands.
package constants

import "os"

// CatalogFilename is the gob file the index command writes into the
// index dir and serve reads back.
const CatalogFilename = "catalog.dat"

// MetadataBatchSize is the DynamoDB BatchGetItem limit per request.
const MetadataBatchSize = 10

func GetIndexDir() string {
	path := os.Getenv("INDEX_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

func GetMediaDir() string {
	path := os.Getenv("MEDIA_PATH")
	if path != "" {
		return path
	}

	panic("MEDIA_PATH environment variable is not set!")
}

// GetMetadataEndpoint returns the DynamoDB endpoint for the metadata
// sidecar, or "" when metadata lookups are disabled.
func GetMetadataEndpoint() string {
	return os.Getenv("METADATA_ENDPOINT")
}

func GetMetadataTable() string {
	table := os.Getenv("METADATA_TABLE")
	if table != "" {
		return table
	}
	return "partita-metadata"
}

func GetServeAddr() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
