package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/engine-dashboard/cyclegen"
	"golang.org/x/sync/errgroup"
)

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/login", body: req, authEndpoint: true}, &resp)
	return resp, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/register", body: req, authEndpoint: true}, &resp)
	return resp, err
}

func (c *Client) ListEngines(ctx context.Context) ([]Engine, error) {
	var engines []Engine
	err := c.do(ctx, request{method: http.MethodGet, path: "/engines"}, &engines)
	return engines, err
}

func (c *Client) GetEngine(ctx context.Context, id int) (EngineDetail, error) {
	var engine EngineDetail
	err := c.do(ctx, request{method: http.MethodGet, path: enginePath(id)}, &engine)
	return engine, err
}

func (c *Client) CreateEngine(ctx context.Context, in EngineInput) (EngineResponse, error) {
	var resp EngineResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/engines", body: in}, &resp)
	return resp, err
}

func (c *Client) UpdateEngine(ctx context.Context, id int, in EngineInput) (EngineResponse, error) {
	var resp EngineResponse
	err := c.do(ctx, request{method: http.MethodPut, path: enginePath(id), body: in}, &resp)
	return resp, err
}

// DeleteEngine removes the engine together with its cycles, maintenance and alerts
func (c *Client) DeleteEngine(ctx context.Context, id int) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, request{method: http.MethodDelete, path: enginePath(id)}, &resp)
	return resp, err
}

func (c *Client) AddCycle(ctx context.Context, engineID int, reading cyclegen.Reading) (CycleResponse, error) {
	var resp CycleResponse
	err := c.do(ctx, request{method: http.MethodPost, path: enginePath(engineID) + "/cycles", body: reading}, &resp)
	return resp, err
}

// AddCycles submits a batch of readings, at most the configured concurrency at a
// time. Replies are returned in the order of readings; the first failure cancels the
// submissions that have not started yet and is returned along with the replies
// received so far.
func (c *Client) AddCycles(ctx context.Context, engineID int, readings []cyclegen.Reading) ([]CycleResponse, error) {
	results := make([]CycleResponse, len(readings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchConcurrency)
	for i, reading := range readings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := c.AddCycle(gctx, engineID, reading)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func (c *Client) ListMaintenance(ctx context.Context, filter MaintenanceFilter) ([]Maintenance, error) {
	var records []Maintenance
	err := c.do(ctx, request{method: http.MethodGet, path: "/maintenance", query: filter.values()}, &records)
	return records, err
}

func (c *Client) GetMaintenance(ctx context.Context, id int) (Maintenance, error) {
	var record Maintenance
	err := c.do(ctx, request{method: http.MethodGet, path: maintenancePath(id)}, &record)
	return record, err
}

func (c *Client) CreateMaintenance(ctx context.Context, in MaintenanceInput) (MaintenanceResponse, error) {
	var resp MaintenanceResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/maintenance", body: in}, &resp)
	return resp, err
}

func (c *Client) UpdateMaintenance(ctx context.Context, id int, in MaintenanceInput) (MaintenanceResponse, error) {
	var resp MaintenanceResponse
	err := c.do(ctx, request{method: http.MethodPut, path: maintenancePath(id), body: in}, &resp)
	return resp, err
}

func (c *Client) DeleteMaintenance(ctx context.Context, id int) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, request{method: http.MethodDelete, path: maintenancePath(id)}, &resp)
	return resp, err
}

// ListAlerts returns open alerts, or resolved ones when resolved is true
func (c *Client) ListAlerts(ctx context.Context, resolved bool) ([]Alert, error) {
	var alerts []Alert
	q := url.Values{"resolved": []string{strconv.FormatBool(resolved)}}
	err := c.do(ctx, request{method: http.MethodGet, path: "/alerts", query: q}, &alerts)
	return alerts, err
}

func (c *Client) UpdateAlert(ctx context.Context, id int, update AlertUpdate) (AlertResponse, error) {
	var resp AlertResponse
	err := c.do(ctx, request{method: http.MethodPut, path: "/alerts/" + strconv.Itoa(id), body: update}, &resp)
	return resp, err
}

func (c *Client) Dashboard(ctx context.Context) (DashboardSummary, error) {
	var summary DashboardSummary
	err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard"}, &summary)
	return summary, err
}

func enginePath(id int) string {
	return "/engines/" + strconv.Itoa(id)
}

func maintenancePath(id int) string {
	return "/maintenance/" + strconv.Itoa(id)
}
