package model

import "fmt"

// Long-term-condition tiers. Monotonically non-decreasing per individual
// within a simulation run.
const (
	LTCNone     = 0
	LTCMild     = 1
	LTCModerate = 2
	LTCSevere   = 3
)

// Cohort holds the simulated population as parallel fixed-length columns.
// All columns share the same length for the lifetime of the cohort; the
// population is closed (no births or immigration).
type Cohort struct {
	Age               []float64
	Sex               []int
	Region            []int
	IMDQuintile       []int
	UrbanRural        []int
	LTCState          []int
	Disability        []bool
	Hospitalised      []bool
	CareHome          []bool
	Alive             []bool
	GPAccess          []float64
	CommunityCapacity []float64
	HeatExposure      []float64
	ColdExposure      []float64
	HospitalBedsPer1K []float64
	CareHomeBedsPer1K []float64

	MonthsElapsed int
}

// NewCohort allocates all columns at size n.
func NewCohort(n int) *Cohort {
	return &Cohort{
		Age:               make([]float64, n),
		Sex:               make([]int, n),
		Region:            make([]int, n),
		IMDQuintile:       make([]int, n),
		UrbanRural:        make([]int, n),
		LTCState:          make([]int, n),
		Disability:        make([]bool, n),
		Hospitalised:      make([]bool, n),
		CareHome:          make([]bool, n),
		Alive:             make([]bool, n),
		GPAccess:          make([]float64, n),
		CommunityCapacity: make([]float64, n),
		HeatExposure:      make([]float64, n),
		ColdExposure:      make([]float64, n),
		HospitalBedsPer1K: make([]float64, n),
		CareHomeBedsPer1K: make([]float64, n),
	}
}

// Size returns the number of individuals.
func (c *Cohort) Size() int {
	return len(c.Age)
}

// Copy returns a deep copy. A simulation call works on its own copy so the
// caller's snapshot is never mutated visibly on failure.
func (c *Cohort) Copy() *Cohort {
	out := NewCohort(c.Size())
	copy(out.Age, c.Age)
	copy(out.Sex, c.Sex)
	copy(out.Region, c.Region)
	copy(out.IMDQuintile, c.IMDQuintile)
	copy(out.UrbanRural, c.UrbanRural)
	copy(out.LTCState, c.LTCState)
	copy(out.Disability, c.Disability)
	copy(out.Hospitalised, c.Hospitalised)
	copy(out.CareHome, c.CareHome)
	copy(out.Alive, c.Alive)
	copy(out.GPAccess, c.GPAccess)
	copy(out.CommunityCapacity, c.CommunityCapacity)
	copy(out.HeatExposure, c.HeatExposure)
	copy(out.ColdExposure, c.ColdExposure)
	copy(out.HospitalBedsPer1K, c.HospitalBedsPer1K)
	copy(out.CareHomeBedsPer1K, c.CareHomeBedsPer1K)
	out.MonthsElapsed = c.MonthsElapsed
	return out
}

// AliveCount returns the number of living individuals.
func (c *Cohort) AliveCount() int {
	n := 0
	for _, a := range c.Alive {
		if a {
			n++
		}
	}
	return n
}

// Snapshot is the flat serialisable form handed to the persistence layer.
// Every column is a numeric sequence; booleans are encoded 0/1 and
// categorical columns carry their integer codes.
type Snapshot struct {
	Columns       map[string][]float64 `json:"columns"`
	MonthsElapsed int                  `json:"months_elapsed"`
}

// Column names in the snapshot form.
const (
	ColAge               = "age"
	ColSex               = "sex"
	ColRegion            = "region"
	ColIMDQuintile       = "imd_quintile"
	ColUrbanRural        = "urban_rural"
	ColLTCState          = "ltc_state"
	ColDisability        = "disability"
	ColHospitalised      = "hospitalised"
	ColCareHome          = "care_home"
	ColAlive             = "alive"
	ColGPAccess          = "gp_access"
	ColCommunityCapacity = "community_capacity"
	ColHeatExposure      = "heat_exposure"
	ColColdExposure      = "cold_exposure"
	ColHospitalBedsPer1K = "hospital_beds_per_1k"
	ColCareHomeBedsPer1K = "care_home_beds_per_1k"
)

func intsToFloats(src []int) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func boolsToFloats(src []bool) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		if v {
			out[i] = 1
		}
	}
	return out
}

// Snapshot flattens the cohort into column-name to numeric sequence form.
func (c *Cohort) Snapshot() *Snapshot {
	cols := map[string][]float64{
		ColAge:               append([]float64(nil), c.Age...),
		ColSex:               intsToFloats(c.Sex),
		ColRegion:            intsToFloats(c.Region),
		ColIMDQuintile:       intsToFloats(c.IMDQuintile),
		ColUrbanRural:        intsToFloats(c.UrbanRural),
		ColLTCState:          intsToFloats(c.LTCState),
		ColDisability:        boolsToFloats(c.Disability),
		ColHospitalised:      boolsToFloats(c.Hospitalised),
		ColCareHome:          boolsToFloats(c.CareHome),
		ColAlive:             boolsToFloats(c.Alive),
		ColGPAccess:          append([]float64(nil), c.GPAccess...),
		ColCommunityCapacity: append([]float64(nil), c.CommunityCapacity...),
		ColHeatExposure:      append([]float64(nil), c.HeatExposure...),
		ColColdExposure:      append([]float64(nil), c.ColdExposure...),
		ColHospitalBedsPer1K: append([]float64(nil), c.HospitalBedsPer1K...),
		ColCareHomeBedsPer1K: append([]float64(nil), c.CareHomeBedsPer1K...),
	}
	return &Snapshot{Columns: cols, MonthsElapsed: c.MonthsElapsed}
}

func (s *Snapshot) column(name string, n int) ([]float64, error) {
	col, ok := s.Columns[name]
	if !ok {
		return nil, fmt.Errorf("snapshot missing column %q", name)
	}
	if len(col) != n {
		return nil, fmt.Errorf("snapshot column %q has length %d, want %d", name, len(col), n)
	}
	return col, nil
}

// FromSnapshot reconstructs a cohort from its flat form, checking that all
// columns are present and share one length.
func FromSnapshot(s *Snapshot) (*Cohort, error) {
	age, ok := s.Columns[ColAge]
	if !ok {
		return nil, fmt.Errorf("snapshot missing column %q", ColAge)
	}
	n := len(age)
	c := NewCohort(n)
	copy(c.Age, age)
	c.MonthsElapsed = s.MonthsElapsed

	intCols := []struct {
		name string
		dst  []int
	}{
		{ColSex, c.Sex},
		{ColRegion, c.Region},
		{ColIMDQuintile, c.IMDQuintile},
		{ColUrbanRural, c.UrbanRural},
		{ColLTCState, c.LTCState},
	}
	for _, ic := range intCols {
		col, err := s.column(ic.name, n)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			ic.dst[i] = int(v)
		}
	}

	boolCols := []struct {
		name string
		dst  []bool
	}{
		{ColDisability, c.Disability},
		{ColHospitalised, c.Hospitalised},
		{ColCareHome, c.CareHome},
		{ColAlive, c.Alive},
	}
	for _, bc := range boolCols {
		col, err := s.column(bc.name, n)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			bc.dst[i] = v != 0
		}
	}

	floatCols := []struct {
		name string
		dst  []float64
	}{
		{ColGPAccess, c.GPAccess},
		{ColCommunityCapacity, c.CommunityCapacity},
		{ColHeatExposure, c.HeatExposure},
		{ColColdExposure, c.ColdExposure},
		{ColHospitalBedsPer1K, c.HospitalBedsPer1K},
		{ColCareHomeBedsPer1K, c.CareHomeBedsPer1K},
	}
	for _, fc := range floatCols {
		col, err := s.column(fc.name, n)
		if err != nil {
			return nil, err
		}
		copy(fc.dst, col)
	}

	return c, nil
}
