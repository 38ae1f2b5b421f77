package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/pkg/env"
)

// Convoy is the client interface the CLI talks to a running
// instance through.
type Convoy interface {
	SubmitJob(deviceIDs, commands []string, batchSize, ratePerHour int) (*engine.CreateResponse, error)
	StopJob(jobID string) error
	JobStatus(jobID string) (*engine.Progress, error)
}

// Client returns a Convoy bound to the local instance.
func Client() Convoy {
	return &client{
		base: fmt.Sprintf("http://localhost:%v/v1", env.Variables().Port),
	}
}

type client struct {
	base string
}

func (c *client) SubmitJob(deviceIDs, commands []string, batchSize, ratePerHour int) (*engine.CreateResponse, error) {
	body := map[string]interface{}{
		"device_ids":          deviceIDs,
		"commands":            commands,
		"batch_size":          batchSize,
		"rate_limit_per_hour": ratePerHour,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(c.base+"/jobs", "application/json", bytes.NewBuffer(buf))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, httpError(resp)
	}

	result := &engine.CreateResponse{}

	return result, json.NewDecoder(resp.Body).Decode(result)
}

func (c *client) StopJob(jobID string) error {
	resp, err := http.Post(fmt.Sprintf("%s/jobs/%s/stop", c.base, jobID), "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return httpError(resp)
	}

	return nil
}

func (c *client) JobStatus(jobID string) (*engine.Progress, error) {
	resp, err := http.Get(fmt.Sprintf("%s/jobs/%s", c.base, jobID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp)
	}

	view := &engine.Progress{}

	return view, json.NewDecoder(resp.Body).Decode(view)
}

func httpError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("convoy api: %s: %s", resp.Status, bytes.TrimSpace(data))
}
