package command

// Subsystem is an exclusive-access handle for a physical resource.
//
// Equality is identity: implementations must be pointer types. At most one
// running command may require a given Subsystem at any instant.
type Subsystem interface {
	Name() string
	// Periodic is called once per tick by the scheduler for registered subsystems.
	Periodic()
}

// SubsystemBase is embedded by subsystems that need no periodic work.
type SubsystemBase struct {
	name string
}

func NewSubsystemBase(name string) SubsystemBase { return SubsystemBase{name: name} }

func (s *SubsystemBase) Name() string {
	if s.name == "" {
		return "subsystem"
	}
	return s.name
}

func (s *SubsystemBase) Periodic() {}
