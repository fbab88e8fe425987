package appointment

import "github.com/google/uuid"

type Role string

const (
	RolePatient      Role = "patient"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RoleAdmin        Role = "admin"
)

// Actor is the identity an operation runs as. The API layer resolves it
// from the gateway; the core only consults the capability table.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type Operation string

const (
	OpConfirm      Operation = "confirm"
	OpComplete     Operation = "complete"
	OpCancel       Operation = "cancel"
	OpEditClinical Operation = "edit_clinical"
	OpCheckIn      Operation = "check_in"
)

type capability struct {
	roles map[Role]bool
	// ownerOnly lists roles that may only act on appointments they are the
	// patient of.
	ownerOnly map[Role]bool
}

// capabilities is the single declarative authorization table. Handlers and
// services never branch on roles anywhere else.
var capabilities = map[Operation]capability{
	OpConfirm: {
		roles: map[Role]bool{RoleDoctor: true, RoleReceptionist: true, RoleAdmin: true},
	},
	OpComplete: {
		roles: map[Role]bool{RoleDoctor: true, RoleAdmin: true},
	},
	OpCancel: {
		roles:     map[Role]bool{RolePatient: true, RoleDoctor: true, RoleReceptionist: true, RoleAdmin: true},
		ownerOnly: map[Role]bool{RolePatient: true},
	},
	OpEditClinical: {
		roles: map[Role]bool{RoleDoctor: true, RoleAdmin: true},
	},
	OpCheckIn: {
		roles: map[Role]bool{RoleDoctor: true, RoleReceptionist: true, RoleAdmin: true},
	},
}

// Authorize evaluates the capability table for one operation against one
// appointment. It answers "may this actor try" only; status legality is
// the state machine's concern.
func Authorize(op Operation, actor Actor, appt *Appointment) error {
	c, ok := capabilities[op]
	if !ok {
		return ErrForbidden
	}
	if !c.roles[actor.Role] {
		return ErrForbidden
	}
	if c.ownerOnly[actor.Role] && appt.PatientID != actor.ID {
		return ErrForbidden
	}
	return nil
}

// IsStaff reports whether the role belongs to clinic staff. Staff cancel
// rules differ from patient rules in the lifecycle.
func (r Role) IsStaff() bool {
	switch r {
	case RoleDoctor, RoleReceptionist, RoleAdmin:
		return true
	}
	return false
}
