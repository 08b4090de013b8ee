package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runningwild/kfinder/pkg/agent"
	"github.com/runningwild/kfinder/pkg/dataset"
	"github.com/runningwild/kfinder/pkg/engine"
)

const defaultTimeout = 5 * time.Minute

// ClusterEngine is an engine.Engine that spreads k-means restarts across
// agent nodes and keeps the lowest-inertia model.
type ClusterEngine struct {
	nodes  []string
	client *http.Client
}

func New(nodes []string) *ClusterEngine {
	return &ClusterEngine{
		nodes:  nodes,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// WithTimeout sets the per-request timeout.
func (c *ClusterEngine) WithTimeout(d time.Duration) *ClusterEngine {
	c.client = &http.Client{Timeout: d}
	return c
}

func (c *ClusterEngine) Fit(ctx context.Context, data dataset.Matrix, params engine.Params) (*engine.Model, error) {
	if len(c.nodes) == 0 {
		return nil, fmt.Errorf("cluster engine has no nodes")
	}
	params = params.WithDefaults()
	results := make([]*engine.Model, len(c.nodes))

	g, gctx := errgroup.WithContext(ctx)
	for i, node := range c.nodes {
		// Always distribute restarts
		nodeParams := params
		base := params.NInit / len(c.nodes)
		rem := params.NInit % len(c.nodes)
		if i < rem {
			nodeParams.NInit = base + 1
		} else {
			nodeParams.NInit = base
		}

		// A node with no restarts would fall back to the default NInit.
		if nodeParams.NInit == 0 {
			continue
		}
		nodeParams.Seed = params.Seed + int64(i)

		g.Go(func() error {
			m, err := c.runRemote(gctx, node, data, nodeParams)
			if err != nil {
				return fmt.Errorf("node %s failed: %w", node, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return best(results), nil
}

func (c *ClusterEngine) runRemote(ctx context.Context, host string, data dataset.Matrix, params engine.Params) (*engine.Model, error) {
	url := fmt.Sprintf("http://%s/fit", host)

	body, err := json.Marshal(agent.FitRequest{Data: data, Params: params})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent %s error (%s): %s", host, resp.Status, string(bytes.TrimSpace(msg)))
	}

	var m engine.Model
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// best picks the lowest-inertia model. Ties keep the earliest node.
func best(results []*engine.Model) *engine.Model {
	var out *engine.Model
	for _, m := range results {
		if m == nil {
			continue
		}
		if out == nil || m.Inertia < out.Inertia {
			out = m
		}
	}
	return out
}
