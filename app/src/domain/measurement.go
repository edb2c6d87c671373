package domain

// Measurement is a single named value read from a report, in megabytes.
type Measurement struct {
	Name  string
	Value float64
}

// MeasurementTable maps measurement names to values and remembers the order in
// which names were first stored. Overwriting a value keeps the name's position.
type MeasurementTable struct {
	names  []string
	values map[string]float64
}

func NewMeasurementTable() *MeasurementTable {
	return &MeasurementTable{values: make(map[string]float64)}
}

// Set stores value under name, replacing any previous value.
func (t *MeasurementTable) Set(name string, value float64) {
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = value
}

// Add accumulates value onto the current value stored under name.
func (t *MeasurementTable) Add(name string, value float64) {
	t.Set(name, t.values[name]+value)
}

func (t *MeasurementTable) Get(name string) (float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *MeasurementTable) Len() int {
	return len(t.names)
}

// Measurements returns the table entries in insertion order.
func (t *MeasurementTable) Measurements() []Measurement {
	out := make([]Measurement, len(t.names))
	for i, name := range t.names {
		out[i] = Measurement{Name: name, Value: t.values[name]}
	}
	return out
}
