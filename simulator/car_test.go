package main

import (
	"math/rand"
	"testing"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

func testConfig() Config {
	return Config{
		Broker:      "tcp://localhost:1883",
		CarID:       "test-car",
		TotalLaps:   4,
		LapSeconds:  10,
		StartSoC:    90,
		Scenario:    "none",
		ScenarioLap: 2,
	}
}

func advance(c *Car, seconds int) {
	for i := 0; i < seconds; i++ {
		c.Advance(1)
	}
}

func TestCarLapProgression(t *testing.T) {
	car := NewCar(testConfig(), rand.New(rand.NewSource(1)))
	if car.Lap() != 1 {
		t.Fatalf("expected lap 1 on the grid, got %d", car.Lap())
	}
	advance(car, 15)
	if car.Lap() != 2 {
		t.Fatalf("expected lap 2 after 15s, got %d", car.Lap())
	}
	advance(car, 40)
	if !car.Finished() {
		t.Fatal("expected race to be finished")
	}
	if car.Lap() != 4 {
		t.Fatalf("lap must clamp at total, got %d", car.Lap())
	}
}

func TestCarDischargesCharge(t *testing.T) {
	car := NewCar(testConfig(), rand.New(rand.NewSource(1)))
	before := car.Sample().Value(model.KeySocCurrent)
	advance(car, 20)
	after := car.Sample().Value(model.KeySocCurrent)
	if after >= before {
		t.Fatalf("charge must drain, got %.2f -> %.2f", before, after)
	}
}

func TestCarSampleCarriesRequiredChannels(t *testing.T) {
	car := NewCar(testConfig(), rand.New(rand.NewSource(1)))
	car.Advance(1)
	sample := car.Sample()
	if missing := sample.MissingMinimum(); len(missing) != 0 {
		t.Fatalf("sample missing required channels: %v", missing)
	}
	if sample.Value(model.KeyLapCurrent) != 1 || sample.Value(model.KeyTotalLaps) != 4 {
		t.Fatalf("lap channels wrong: %v", sample)
	}
}

func TestCarBatteryProfiles(t *testing.T) {
	drain := func(profile string) float64 {
		cfg := testConfig()
		cfg.BatteryProfile = profile
		car := NewCar(cfg, rand.New(rand.NewSource(1)))
		advance(car, 20)
		return cfg.StartSoC - car.Sample().Value(model.KeySocCurrent)
	}
	endurance, sprint := drain("endurance"), drain("sprint")
	if endurance >= sprint {
		t.Fatalf("sprint profile must drain faster: endurance %.2f sprint %.2f", endurance, sprint)
	}
}

func TestCarOverheatScenario(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario = "overheat"
	car := NewCar(cfg, rand.New(rand.NewSource(1)))
	advance(car, 45)
	temp := car.Sample().Value(model.KeyMotorTemp)
	if temp < 80 {
		t.Fatalf("overheat scenario must push motor temp up, got %.1f", temp)
	}
}

func TestCarHypoxiaScenario(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario = "hypoxia"
	cfg.ScenarioLap = 1
	car := NewCar(cfg, rand.New(rand.NewSource(1)))
	advance(car, 35)
	spo2 := car.Sample().Value(model.KeySpO2)
	if spo2 > 92 {
		t.Fatalf("hypoxia scenario must lower spo2, got %.1f", spo2)
	}
}

func TestCarSlipScenario(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario = "slip"
	cfg.ScenarioLap = 1
	car := NewCar(cfg, rand.New(rand.NewSource(1)))
	car.Advance(1)
	sample := car.Sample()
	gps := sample.Value(model.KeyGPSSpeed)
	wheel := sample.Value(model.KeyWheelFront)
	if (wheel-gps)/gps < 0.25 {
		t.Fatalf("slip scenario must spin the wheels, gps %.1f wheel %.1f", gps, wheel)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	if err := (&cfg).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := testConfig()
	bad.Scenario = "teleport"
	if err := (&bad).Validate(); err == nil {
		t.Fatal("unknown scenario must be rejected")
	}
	bad = testConfig()
	bad.DropRate = 1.5
	if err := (&bad).Validate(); err == nil {
		t.Fatal("drop rate above one must be rejected")
	}
	bad = testConfig()
	bad.TotalLaps = 0
	if err := (&bad).Validate(); err == nil {
		t.Fatal("zero laps must be rejected")
	}
}
