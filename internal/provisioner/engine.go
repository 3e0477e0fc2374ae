// Package provisioner simulates deployment runs. Deployments advance through
// a fixed phase sequence on a worker pool; no cloud calls are made.
package provisioner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/worker"
)

// Storage is the subset of storage the engine needs.
type Storage interface {
	GetEnvironment(id string) (*model.Environment, error)
	SetEnvironmentStatus(id, status string) error
	ListEnvironments(filter *model.EnvironmentFilter) ([]model.Environment, error)
	CreateDeployment(d *model.Deployment) error
	GetDeployment(id string) (*model.Deployment, error)
	UpdateDeployment(d *model.Deployment) error
	ListDeployments(filter *model.DeploymentFilter) ([]model.Deployment, error)
}

// Pool runs deployment jobs. Satisfied by *worker.Pool.
type Pool interface {
	Submit(job worker.Job) error
}

// phase is one step of the simulated run, with the progress reached when the
// step completes.
type phase struct {
	status   string
	progress int
	message  string
}

var phases = []phase{
	{model.DeployValidating, 15, "validating template and parameters"},
	{model.DeployDeploying, 60, "deploying infrastructure"},
	{model.DeployConfiguring, 85, "configuring workload"},
	{model.DeploySucceeded, 100, "deployment complete"},
}

// Engine drives deployments through their phases.
type Engine struct {
	mu       sync.Mutex
	storage  Storage
	pool     Pool
	step     time.Duration
	running  map[string]bool
	canceled map[string]bool

	// beforePhase, when set, runs before each phase transition and can fail
	// the deployment. Used to exercise the failure path.
	beforePhase func(deploymentID, status string) error
}

// NewEngine creates an engine. step is the simulated duration of each phase.
func NewEngine(s Storage, pool Pool, step time.Duration) *Engine {
	if step <= 0 {
		step = 2 * time.Second
	}
	return &Engine{
		storage:  s,
		pool:     pool,
		step:     step,
		running:  make(map[string]bool),
		canceled: make(map[string]bool),
	}
}

// Enqueue creates a queued deployment for the environment and submits it to
// the pool.
func (e *Engine) Enqueue(environmentID string) (*model.Deployment, error) {
	env, err := e.storage.GetEnvironment(environmentID)
	if err != nil {
		return nil, err
	}

	d := &model.Deployment{
		ID:            newID(),
		EnvironmentID: env.ID,
		Status:        model.DeployQueued,
		Message:       "queued for provisioning",
		StartedAt:     time.Now(),
	}
	if err := e.storage.CreateDeployment(d); err != nil {
		return nil, err
	}

	if err := e.submit(d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// Cancel requests cancellation of a deployment. Terminal deployments cannot
// be canceled.
func (e *Engine) Cancel(deploymentID string) error {
	d, err := e.storage.GetDeployment(deploymentID)
	if err != nil {
		return err
	}
	if d.Terminal() {
		return fmt.Errorf("deployment %s is already %s", d.ID, d.Status)
	}

	e.mu.Lock()
	e.canceled[deploymentID] = true
	active := e.running[deploymentID]
	e.mu.Unlock()

	// Queued deployments with no active job are finalized right away, the
	// environment included; active ones stop at their next phase boundary.
	if !active {
		e.mu.Lock()
		delete(e.canceled, deploymentID)
		e.mu.Unlock()
		if err := e.finish(d, model.DeployCanceled, "canceled before start"); err != nil {
			return err
		}
		return e.storage.SetEnvironmentStatus(d.EnvironmentID, model.EnvFailed)
	}
	return nil
}

// Sweep re-submits queued deployments that have no active job (after a
// restart) and finalizes environments marked deleting. Registered as a
// recurring scheduler task.
func (e *Engine) Sweep(ctx context.Context) error {
	queued, err := e.storage.ListDeployments(&model.DeploymentFilter{Status: model.DeployQueued})
	if err != nil {
		return err
	}
	for _, d := range queued {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.submit(d.ID); err != nil {
			log.Warn("Re-submitting queued deployment", "deployment", d.ID, "error", err)
		}
	}

	deleting, err := e.storage.ListEnvironments(&model.EnvironmentFilter{Status: model.EnvDeleting})
	if err != nil {
		return err
	}
	for _, env := range deleting {
		if err := e.storage.SetEnvironmentStatus(env.ID, model.EnvDeleted); err != nil {
			log.Warn("Finalizing environment deletion", "environment", env.ID, "error", err)
		} else {
			log.Info("Environment deleted", "environment", env.ID, "name", env.Name)
		}
	}

	return nil
}

func (e *Engine) submit(deploymentID string) error {
	e.mu.Lock()
	if e.running[deploymentID] {
		e.mu.Unlock()
		return nil
	}
	e.running[deploymentID] = true
	e.mu.Unlock()

	err := e.pool.Submit(worker.Job{
		ID:      deploymentID,
		Handler: func(ctx context.Context) error { return e.run(ctx, deploymentID) },
	})
	if err != nil {
		e.mu.Lock()
		delete(e.running, deploymentID)
		e.mu.Unlock()
	}
	return err
}

// run advances one deployment through all phases.
func (e *Engine) run(ctx context.Context, deploymentID string) error {
	defer func() {
		e.mu.Lock()
		delete(e.running, deploymentID)
		delete(e.canceled, deploymentID)
		e.mu.Unlock()
	}()

	d, err := e.storage.GetDeployment(deploymentID)
	if err != nil {
		return err
	}
	if d.Terminal() {
		return nil
	}

	log.Info("Deployment started", "deployment", d.ID, "environment", d.EnvironmentID)

	for _, p := range phases {
		select {
		case <-ctx.Done():
			return e.finish(d, model.DeployCanceled, "shutdown during "+d.Status)
		case <-time.After(e.step):
		}

		if e.isCanceled(d.ID) {
			if err := e.finish(d, model.DeployCanceled, "canceled during "+d.Status); err != nil {
				return err
			}
			return e.storage.SetEnvironmentStatus(d.EnvironmentID, model.EnvFailed)
		}

		if e.beforePhase != nil {
			if err := e.beforePhase(d.ID, p.status); err != nil {
				if ferr := e.finish(d, model.DeployFailed, err.Error()); ferr != nil {
					return ferr
				}
				return e.storage.SetEnvironmentStatus(d.EnvironmentID, model.EnvFailed)
			}
		}

		d.Status = p.status
		d.Progress = p.progress
		d.Phase = p.status
		d.Message = p.message
		if p.status == model.DeploySucceeded {
			now := time.Now()
			d.FinishedAt = &now
		}
		if err := e.storage.UpdateDeployment(d); err != nil {
			return err
		}
		log.Debug("Deployment advanced", "deployment", d.ID, "status", d.Status, "progress", d.Progress)
	}

	log.Info("Deployment succeeded", "deployment", d.ID, "environment", d.EnvironmentID)
	return e.storage.SetEnvironmentStatus(d.EnvironmentID, model.EnvRunning)
}

func (e *Engine) isCanceled(deploymentID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canceled[deploymentID]
}

func (e *Engine) finish(d *model.Deployment, status, message string) error {
	now := time.Now()
	d.Status = status
	d.Message = message
	d.FinishedAt = &now
	return e.storage.UpdateDeployment(d)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
