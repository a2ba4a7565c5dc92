package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"pnodewatch/config"
	"pnodewatch/models"
)

// NodeFetcher returns one raw batch of node payloads from the network
// directory, or an error when no source could be reached. The poller treats
// an error as "no snapshot this cycle".
type NodeFetcher interface {
	FetchNodes(ctx context.Context) ([]map[string]interface{}, error)
}

// PRPCClient fetches the node directory over pRPC. The exact endpoint layout
// varies between deployments, so it probes the configured entrypoints with
// getClusterNodes first and then walks a set of alternate JSON-RPC method
// names and path patterns before giving up.
type PRPCClient struct {
	cfg        *config.Config
	logger     *logrus.Logger
	httpClient *http.Client
}

var fallbackMethods = []string{"getGossipNodes", "getClusterNodes", "getNodes", "getAllNodes"}

var fallbackPaths = []string{"/prpc", "/rpc", "/api/v1/nodes", "/v1/gossip/nodes"}

func NewPRPCClient(cfg *config.Config, logger *logrus.Logger) *PRPCClient {
	timeout := 10 * time.Second
	if t := cfg.PRPCTimeoutDuration(); t > 0 && t <= 15*time.Second {
		timeout = t
	}

	return &PRPCClient{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

// FetchNodes probes every known source in order and returns the first
// non-empty batch. All sources failing is a fetch failure: no synthetic
// batch is invented for the caller.
func (c *PRPCClient) FetchNodes(ctx context.Context) ([]map[string]interface{}, error) {
	for _, entrypoint := range c.cfg.PRPC.Entrypoints {
		nodes, err := c.callRPC(ctx, entrypoint, "getClusterNodes")
		if err != nil {
			c.logger.WithError(err).WithField("entrypoint", entrypoint).Debug("Entrypoint probe failed")
			continue
		}
		if len(nodes) > 0 {
			c.logger.WithFields(logrus.Fields{
				"entrypoint": entrypoint,
				"nodes":      len(nodes),
			}).Debug("Fetched node directory")
			return nodes, nil
		}
	}

	// Alternate method/path combinations against each entrypoint.
	for _, entrypoint := range c.cfg.PRPC.Entrypoints {
		for _, path := range fallbackPaths {
			for _, method := range fallbackMethods {
				nodes, err := c.callRPC(ctx, entrypoint+path, method)
				if err != nil || len(nodes) == 0 {
					continue
				}
				return nodes, nil
			}
		}
	}

	// REST-style listing as the last resort.
	for _, entrypoint := range c.cfg.PRPC.Entrypoints {
		nodes, err := c.fetchREST(ctx, entrypoint+"/api/v1/nodes")
		if err != nil || len(nodes) == 0 {
			continue
		}
		return nodes, nil
	}

	return nil, fmt.Errorf("no pRPC endpoint returned a node directory")
}

func (c *PRPCClient) callRPC(ctx context.Context, url string, method string) ([]map[string]interface{}, error) {
	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []interface{}{},
		ID:      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error %d from %s", resp.StatusCode, url)
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var nodes []map[string]interface{}
	if err := json.Unmarshal(rpcResp.Result, &nodes); err != nil {
		return nil, fmt.Errorf("unexpected result shape: %w", err)
	}

	return nodes, nil
}

func (c *PRPCClient) fetchREST(ctx context.Context, url string) ([]map[string]interface{}, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error %d from %s", resp.StatusCode, url)
	}

	var nodes []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		return nil, err
	}

	return nodes, nil
}
