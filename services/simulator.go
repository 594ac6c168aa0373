package services

import (
	"assetmap/models"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"
)

// FleetSimulator - 자산 위치 시뮬레이터 (기본 10Hz)
type FleetSimulator struct {
	broadcastFunc func(models.Telemetry)
	interval      time.Duration
	logger        *slog.Logger
	now           func() time.Time

	// 시뮬레이션 상태
	walkers []*assetWalker
	rng     *rand.Rand

	// 제어
	isRunning bool
	stopChan  chan struct{}
	mu        sync.Mutex
}

// NewFleetSimulator creates one walker per catalog asset at a random spot.
func NewFleetSimulator(assets []models.CatalogAsset, interval time.Duration, seed int64, broadcastFunc func(models.Telemetry), logger *slog.Logger) *FleetSimulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	rng := rand.New(rand.NewSource(seed))

	walkers := make([]*assetWalker, len(assets))
	for i, a := range assets {
		walkers[i] = newAssetWalker(models.TrackedObjectID(a.ID), a.TagID(), rng)
	}

	return &FleetSimulator{
		broadcastFunc: broadcastFunc,
		interval:      interval,
		logger:        logger,
		now:           time.Now,
		walkers:       walkers,
		rng:           rng,
	}
}

// Start - 시뮬레이션 시작
func (s *FleetSimulator) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	s.logger.Info("위치 시뮬레이터 시작", "objects", len(s.walkers), "interval", s.interval)
	go s.runSimulation(stop)
}

// Stop - 시뮬레이션 중지
func (s *FleetSimulator) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	s.mu.Unlock()

	s.logger.Info("위치 시뮬레이터 중지")
}

func (s *FleetSimulator) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *FleetSimulator) runSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step advances every walker by one interval and broadcasts the results.
func (s *FleetSimulator) Step() {
	s.mu.Lock()
	now := s.now()
	dt := s.interval.Seconds()
	out := make([]models.Telemetry, len(s.walkers))
	for i, w := range s.walkers {
		out[i] = w.update(dt, s.rng, now)
	}
	s.mu.Unlock()

	if s.broadcastFunc == nil {
		return
	}
	for _, t := range out {
		s.broadcastFunc(t)
	}
}

// ==================== 개별 자산 ====================

const (
	retargetChance = 0.01
	invalidChance  = 0.0005
	drainChance    = 0.001
	arriveRadius   = 0.5
	steerFactor    = 0.1
	velocityNoise  = 0.05
	damping        = 0.98
)

// assetWalker steers toward a random target with smoothed velocity, bounces
// off the plane edges and occasionally reports invalid fixes while frozen.
type assetWalker struct {
	id       models.TrackedObjectID
	tagID    string
	sourceID int64

	x, y             float64
	vx, vy           float64
	angle            float64
	speed            float64
	targetX, targetY float64
	battery          int

	valid        bool
	invalidTicks int
	invalidFor   int
}

func newAssetWalker(id models.TrackedObjectID, tagID string, rng *rand.Rand) *assetWalker {
	return &assetWalker{
		id:       id,
		tagID:    tagID,
		sourceID: 1 + rng.Int63n(5),
		x:        rng.Float64() * models.PlaneSide,
		y:        rng.Float64() * models.PlaneSide,
		angle:    rng.Float64() * 2 * math.Pi,
		speed:    0.5 + rng.Float64()*2.0,
		battery:  80 + rng.Intn(20),
		valid:    true,
	}
}

func (w *assetWalker) update(dt float64, rng *rand.Rand, now time.Time) models.Telemetry {
	// 무효 구간: 위치 고정, is_valid=false 로 계속 전송
	if !w.valid {
		w.invalidTicks++
		if w.invalidTicks > w.invalidFor {
			w.valid = true
			w.invalidTicks = 0
		}
		return w.telemetry(now, false)
	}

	if rng.Float64() < retargetChance {
		w.targetX = rng.Float64() * models.PlaneSide
		w.targetY = rng.Float64() * models.PlaneSide
	}

	if w.targetX != 0 || w.targetY != 0 {
		dx := w.targetX - w.x
		dy := w.targetY - w.y
		dist := math.Hypot(dx, dy)

		if dist > arriveRadius {
			w.vx += ((dx/dist)*w.speed - w.vx) * steerFactor
			w.vy += ((dy/dist)*w.speed - w.vy) * steerFactor
			w.angle += normalizeAngle(math.Atan2(dy, dx)-w.angle) * steerFactor
		} else {
			w.vx *= 0.9
			w.vy *= 0.9
		}
	}

	w.vx += (rng.Float64() - 0.5) * velocityNoise
	w.vy += (rng.Float64() - 0.5) * velocityNoise
	w.vx *= damping
	w.vy *= damping

	w.x += w.vx * dt
	w.y += w.vy * dt
	w.bounce()

	if rng.Float64() < drainChance && w.battery > 0 {
		w.battery--
	}

	if rng.Float64() < invalidChance {
		w.valid = false
		w.invalidTicks = 0
		w.invalidFor = 20 + rng.Intn(30)
	}

	return w.telemetry(now, w.valid)
}

func (w *assetWalker) bounce() {
	const side = models.PlaneSide
	if w.x < 0 || w.x > side {
		w.x = math.Max(0, math.Min(side, w.x))
		w.vx = -w.vx
		w.targetX = side / 2
	}
	if w.y < 0 || w.y > side {
		w.y = math.Max(0, math.Min(side, w.y))
		w.vy = -w.vy
		w.targetY = side / 2
	}
}

func (w *assetWalker) telemetry(now time.Time, valid bool) models.Telemetry {
	return models.Telemetry{
		ObjectID:  w.id,
		TagID:     w.tagID,
		Timestamp: now,
		IsValid:   valid,
		SourceID:  w.sourceID,
		X:         w.x,
		Y:         w.y,
		A:         w.angle,
		Latitude:  48.1351 + w.y/111000.0,
		Longitude: 11.5820 + w.x/111000.0,
		Altitude:  520.0,
		Flags:     []int32{},
		TenantID:  1,
		Battery: models.BatteryState{
			Percentage:           w.battery,
			PercentageLastUpdate: now,
		},
	}
}

// normalizeAngle wraps a into [-π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
