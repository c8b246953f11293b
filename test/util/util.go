// Package util holds helpers for the integration tests: a disposable MQTT
// broker and a poller for Prometheus exposition output.
package util

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MosquittoImage        = "eclipse-mosquitto:2.0"
	MosquittoReadyTimeout = 10 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// WaitForMetric polls metricsURL until one exposition line starts with
// sample, e.g. `fleet_days_simulated_total{...} 2`.
func WaitForMetric(ctx context.Context, metricsURL, sample string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		found, err := scrape(ctx, metricsURL, sample)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not exposed: %w", sample, ctx.Err())
		case <-ticker.C:
		}
	}
}

func scrape(ctx context.Context, metricsURL, sample string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		// endpoint not up yet
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), sample) {
			return true, nil
		}
	}
	return false, sc.Err()
}

// StartMosquitto runs an anonymous Mosquitto broker in a container and
// returns its tcp:// URL once it accepts MQTT connections. The returned
// function terminates the container.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        MosquittoImage,
			ExposedPorts: []string{"1883/tcp"},
			// the image ships a listener config without authentication
			Cmd:        []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			WaitingFor: wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("start mosquitto: %w", err)
	}
	stop := func() { _ = cont.Terminate(context.Background()) }

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		stop()
		return "", nil, err
	}
	readyCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := probeBroker(readyCtx, endpoint); err != nil {
		stop()
		return "", nil, err
	}
	return endpoint, stop, nil
}

func probeBroker(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleetload-probe").
		SetConnectTimeout(time.Second)
	for {
		cli := paho.NewClient(opts)
		tok := cli.Connect()
		if tok.WaitTimeout(2*time.Second) && tok.Error() == nil {
			cli.Disconnect(50)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("broker %s not ready: %w", broker, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
