package executor

// Binding fixes an execution to the host that served its image pull and,
// once started, to its container. ContainerID is set only while host and
// port are set, but clearing the host on a connection failure deliberately
// leaves ContainerID in place: a cleared host forces re-selection, and the
// scheduler retries from image pull.
type Binding struct {
	Host        string
	Port        int
	ContainerID string
}

// HasHost reports whether the execution is bound to a host.
func (b *Binding) HasHost() bool {
	return b.Host != ""
}

// BindHost records the host that will serve every subsequent call for this
// execution.
func (b *Binding) BindHost(host string, port int) {
	b.Host = host
	b.Port = port
}

// ClearHost drops the host binding after a connection failure so the next
// operation selects a fresh host.
func (b *Binding) ClearHost() {
	b.Host = ""
	b.Port = 0
}

// Execution is one job execution owned by a single worker at a time. The
// executor mutates only the Binding.
type Execution struct {
	// ID names the execution; the job container is {jobPrefix}-{ID}.
	ID string

	// Envs is injected into the job container's environment.
	Envs map[string]string

	Binding Binding
}
