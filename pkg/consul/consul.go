package consul

import (
	"fmt"
	"strconv"

	"sos-service/config"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type ConsulConn struct {
	logger    *zap.SugaredLogger
	cfg       *config.Config
	client    *consulapi.Client
	serviceID string
}

func NewConsulConn(logger *zap.SugaredLogger, cfg *config.Config) *ConsulConn {
	return &ConsulConn{
		logger:    logger,
		cfg:       cfg,
		serviceID: fmt.Sprintf("%s-%s", cfg.ServiceName, cfg.Port),
	}
}

// Connect registers the service with the local consul agent and returns the
// client for later health lookups.
func (c *ConsulConn) Connect() *consulapi.Client {
	consulCfg := consulapi.DefaultConfig()
	consulCfg.Address = c.cfg.ConsulAddr

	client, err := consulapi.NewClient(consulCfg)
	if err != nil {
		c.logger.Fatalf("Failed to create consul client: %v", err)
	}
	c.client = client

	port, err := strconv.Atoi(c.cfg.Port)
	if err != nil {
		c.logger.Fatalf("Invalid service port %q: %v", c.cfg.Port, err)
	}

	registration := &consulapi.AgentServiceRegistration{
		ID:      c.serviceID,
		Name:    c.cfg.ServiceName,
		Address: c.cfg.ServiceHost,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", c.cfg.ServiceHost, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		c.logger.Warnf("Failed to register service with consul: %v", err)
	} else {
		c.logger.Infof("Registered %s with consul as %s", c.cfg.ServiceName, c.serviceID)
	}

	return client
}

func (c *ConsulConn) Deregister() {
	if c.client == nil {
		return
	}
	if err := c.client.Agent().ServiceDeregister(c.serviceID); err != nil {
		c.logger.Warnf("Failed to deregister service %s: %v", c.serviceID, err)
	}
}
