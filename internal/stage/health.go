package stage

// Health reports whether a stage can run right now.
type Health struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// Healthy returns a ready Health for name.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy returns a Health for name that explains what is missing.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}
