package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

// ConsulBackend queries the Consul health endpoint for passing instances.
type ConsulBackend struct {
	client *api.Client
}

func NewConsulClient(address string) (*api.Client, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address
	c, err := api.NewClient(cfg)
	return c, errors.Wrapf(err, "failed to create consul client for %s", address)
}

func NewConsulBackend(client *api.Client) *ConsulBackend {
	return &ConsulBackend{client: client}
}

func (c *ConsulBackend) HealthyInstances(ctx context.Context, service string) ([]Instance, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.client.Health().Service(service, "", true, q)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query consul for %s", service)
	}

	instances := make([]Instance, 0, len(entries))
	for _, e := range entries {
		if e.Service == nil {
			continue
		}
		addr := e.Service.Address
		if addr == "" && e.Node != nil {
			addr = e.Node.Address
		}
		instances = append(instances, Instance{ID: e.Service.ID, Address: addr, Port: e.Service.Port})
	}
	return instances, nil
}

// Registration describes the running process to the registry. A non-empty
// HealthPath registers an HTTP check, otherwise a TTL check is used and the
// process must renew it.
type Registration struct {
	ID         string
	Name       string
	Address    string
	Port       int
	Tags       []string
	HealthPath string
	TTL        time.Duration
}

const (
	checkInterval   = 10 * time.Second
	checkTimeout    = 5 * time.Second
	deregisterAfter = time.Minute
)

// Registry registers services with the local Consul agent.
type Registry struct {
	client *api.Client
}

func NewRegistry(client *api.Client) *Registry {
	return &Registry{client: client}
}

func (r *Registry) Register(ctx context.Context, reg Registration) error {
	check := &api.AgentServiceCheck{
		DeregisterCriticalServiceAfter: deregisterAfter.String(),
	}
	if reg.HealthPath != "" {
		check.HTTP = fmt.Sprintf("http://%s:%d%s", reg.Address, reg.Port, reg.HealthPath)
		check.Interval = checkInterval.String()
		check.Timeout = checkTimeout.String()
	} else {
		check.TTL = reg.TTL.String()
		check.Status = api.HealthPassing
	}

	svc := &api.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
		Check:   check,
	}
	opts := api.ServiceRegisterOpts{}.WithContext(ctx)
	return errors.Wrapf(r.client.Agent().ServiceRegisterOpts(svc, opts), "failed to register %s", reg.ID)
}

func (r *Registry) Deregister(ctx context.Context, id string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	return errors.Wrapf(r.client.Agent().ServiceDeregisterOpts(id, q), "failed to deregister %s", id)
}

// RenewLease marks the TTL check of service id as passing.
func (r *Registry) RenewLease(ctx context.Context, id string, note string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	err := r.client.Agent().UpdateTTLOpts("service:"+id, note, api.HealthPassing, q)
	return errors.Wrapf(err, "failed to renew ttl of %s", id)
}
