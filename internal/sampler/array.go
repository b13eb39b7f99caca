package sampler

// Array is the ordered sampler collection the run loop schedules against.
// Samplers added to it default to the Nyquist/OverSampling cadence.
type Array struct {
	nyquist      uint64
	oversampling int
	samplers     []Sampler
	flushIdx     int
}

func NewArray(nyquist uint64, oversampling int) *Array {
	if nyquist < 1 {
		nyquist = 1
	}
	if oversampling < 2 {
		oversampling = 2
	}
	return &Array{nyquist: nyquist, oversampling: oversampling}
}

func (a *Array) OverSampling() int { return a.oversampling }

// DefaultInterval is the cadence assigned to newly added samplers.
func (a *Array) DefaultInterval() uint64 {
	iv := a.nyquist / uint64(a.oversampling)
	if iv < 1 {
		iv = 1
	}
	return iv
}

func (a *Array) Add(s Sampler) {
	s.SetInterval(a.DefaultInterval())
	a.samplers = append(a.samplers, s)
}

func (a *Array) Samplers() []Sampler { return a.samplers }

// SafeAdvance returns how many timesteps the engine may advance from now
// without any sampler missing its exact sampling timestep, clamped to the
// remaining budget. Returns 0 only when the budget is exhausted.
func (a *Array) SafeAdvance(now, budget uint64) uint64 {
	if now >= budget {
		return 0
	}
	step := budget - now
	for _, s := range a.samplers {
		if !s.Enabled() {
			continue
		}
		if n := s.NextSampleIn(now); n < step {
			step = n
		}
	}
	if step < 1 {
		step = 1
	}
	return step
}

// SampleAt offers the current timestep to every enabled sampler; each decides
// internally whether it is due.
func (a *Array) SampleAt(ts uint64) {
	for _, s := range a.samplers {
		if s.Enabled() {
			s.SampleAt(ts)
		}
	}
}

// FlushNext flushes a single sampler's pending output, round-robin, so
// storage writes are spread across iterations instead of stalling one batch.
func (a *Array) FlushNext() error {
	if len(a.samplers) == 0 {
		return nil
	}
	s := a.samplers[a.flushIdx%len(a.samplers)]
	a.flushIdx++
	return s.FlushPending()
}

func (a *Array) CloseAll() error {
	var first error
	for _, s := range a.samplers {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
