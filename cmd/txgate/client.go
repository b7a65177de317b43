package main

import (
	"fmt"
	"strings"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/util"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// submit posts [uri, data] to a node and prints the receive result. A rejected transaction exits non zero.
func submit(c *cli.Context) error {
	var data any
	if err := json.Unmarshal([]byte(c.String("data")), &data); err != nil {
		return errors.NewInvalidArgumentError("--data is not valid JSON", err)
	}

	body, err := json.Marshal(model.NewTransaction(c.String("uri"), data))
	if err != nil {
		return errors.NewProcessingError("failed to encode transaction", err)
	}

	url := endpoint(c.String("node"), "/txn")

	resp, err := util.DoHTTPRequest(c.Context, url, body)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, string(resp.Body))

	if !resp.OK() {
		return errors.NewServiceError("%s answered %d", url, resp.StatusCode)
	}

	return nil
}

// checkHealth prints the health of a service. An unhealthy service exits non zero.
func checkHealth(c *cli.Context) error {
	url := endpoint(c.String("url"), "/health")

	resp, err := util.DoHTTPRequest(c.Context, url)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, string(resp.Body))

	if !resp.OK() {
		return errors.NewServiceError("%s answered %d", url, resp.StatusCode)
	}

	return nil
}

func endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
