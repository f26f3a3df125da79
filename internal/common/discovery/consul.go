// Package discovery registers the service with Consul.
package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// NewConsulClient connects to the Consul agent at host:port.
func NewConsulClient(host string, port int) (*api.Client, error) {
	cfg := api.DefaultConfig()
	cfg.Address = fmt.Sprintf("%s:%d", host, port)

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// ServiceRegistry registers one service instance with an HTTP health check.
type ServiceRegistry struct {
	client    *api.Client
	serviceID string
}

func NewServiceRegistry(client *api.Client) *ServiceRegistry {
	return &ServiceRegistry{client: client}
}

// Register announces the instance to Consul. The health check probes
// /healthz over HTTP every 10s and deregisters after 1m of failures.
func (r *ServiceRegistry) Register(serviceID, serviceName, address string, port int) error {
	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: address,
		Port:    port,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service %s: %w", serviceName, err)
	}
	r.serviceID = serviceID
	return nil
}

// Deregister removes the instance from Consul.
func (r *ServiceRegistry) Deregister() error {
	if r.serviceID == "" {
		return nil
	}
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", r.serviceID, err)
	}
	return nil
}
