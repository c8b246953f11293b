package test

import (
	"context"
	"encoding/json"
	"os/exec"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetload/core/bus"
	coremetrics "github.com/kilianp07/fleetload/core/metrics"
	"github.com/kilianp07/fleetload/infra/mqtt"
	"github.com/kilianp07/fleetload/test/util"
)

func TestBusDaysPublishedToMosquitto(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	defer cleanup()

	var (
		mu   sync.Mutex
		days []coremetrics.DayResult
	)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("dashboard"))
	token := sub.Connect()
	token.Wait()
	require.NoError(t, token.Error())
	defer sub.Disconnect(100)
	token = sub.Subscribe("fleetload/bus/#", 1, func(_ paho.Client, m paho.Message) {
		var d coremetrics.DayResult
		if json.Unmarshal(m.Payload(), &d) == nil {
			mu.Lock()
			days = append(days, d)
			mu.Unlock()
		}
	})
	token.Wait()
	require.NoError(t, token.Error())

	pub, err := mqtt.NewPublisher(mqtt.Config{Broker: broker, ClientID: "fleetload-test", QoS: 1})
	require.NoError(t, err)
	defer pub.Close()

	p := bus.DefaultParams()
	p.Days = 3
	sim, err := bus.NewSimulator(p, 1, bus.WithSink(pub))
	require.NoError(t, err)
	res, err := sim.Run(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(days) == len(res.Days)
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, d := range days {
		assert.Equal(t, res.RunID, d.RunID)
		assert.Equal(t, res.Days[i].PeakLoadKW, d.PeakLoadKW)
	}
}
