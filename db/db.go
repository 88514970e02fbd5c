// Package db fetches per-file metadata from the DynamoDB sidecar table.
// Lookups are optional: the catalog only consults this package when
// METADATA_ENDPOINT is configured.
package db

import (
	"strconv"

	"github.com/jswain/partita/constants"
	"github.com/jswain/partita/model"
	"github.com/pkg/errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// GetFileMetadatas looks up metadata for up to MetadataBatchSize file
// names, keyed by name. Names without a record are absent from the
// result.
func GetFileMetadatas(filenames []string) (map[string]model.FileMetadata, error) {
	if len(filenames) > constants.MetadataBatchSize {
		return nil, errors.Errorf("db: at most %v filenames per batch, got %v",
			constants.MetadataBatchSize, len(filenames))
	}

	res := make(map[string]model.FileMetadata)
	if len(filenames) == 0 {
		return res, nil
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, filename := range filenames {
		key := make(map[string]*dynamodb.AttributeValue)
		key["PK"] = &dynamodb.AttributeValue{
			S: aws.String(filename),
		}
		keys = append(keys, key)
	}

	endpoint := constants.GetMetadataEndpoint()
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating DynamoDB session")
	}

	table := constants.GetMetadataTable()
	client := dynamodb.New(sess)
	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			table: {Keys: keys},
		},
	}
	dbres, err := client.BatchGetItem(input)
	if err != nil {
		return nil, errors.Wrap(err, "fetching metadata batch")
	}

	for _, v := range dbres.Responses[table] {
		var m model.FileMetadata
		if v["Year"] != nil && v["Year"].N != nil {
			year, _ := strconv.ParseUint(*v["Year"].N, 10, 32)
			m.Year = uint(year)
		}
		m.Title = stringAttr(v, "Title")
		m.Artist = stringAttr(v, "Artist")
		m.Release = stringAttr(v, "Release")
		res[*v["PK"].S] = m
	}

	return res, nil
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if v := item[name]; v != nil && v.S != nil {
		return *v.S
	}
	return ""
}
