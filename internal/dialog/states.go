package dialog

// Workflow states. A missing cache entry means the zero value, Ready.
// Transitions are pure functions over (state, event) so each machine is
// testable without transport I/O. Unexpected events leave the state
// unchanged.

// RegistrationState is a step of the house registration workflow.
type RegistrationState int

const (
	RegReady RegistrationState = iota
	RegWaitLowFloor
	RegWaitLastFloor
	RegWaitApartPerFloor
	RegWaitFirstApart
	RegWaitApprove
	RegWaitUpdate
)

// RegistrationEvent is an input to the house registration machine.
type RegistrationEvent int

const (
	RegEventStart RegistrationEvent = iota
	RegEventInput
	RegEventApproveYes
	RegEventApproveNo
	RegEventExists
	RegEventUpdateAnswered
)

// NextRegistrationState applies one event to the registration machine.
func NextRegistrationState(s RegistrationState, e RegistrationEvent) RegistrationState {
	switch {
	case e == RegEventStart:
		return RegWaitLowFloor
	case s == RegWaitLowFloor && e == RegEventInput:
		return RegWaitLastFloor
	case s == RegWaitLastFloor && e == RegEventInput:
		return RegWaitApartPerFloor
	case s == RegWaitApartPerFloor && e == RegEventInput:
		return RegWaitFirstApart
	case s == RegWaitFirstApart && e == RegEventInput:
		return RegWaitApprove
	case s == RegWaitApprove && e == RegEventApproveYes:
		return RegReady
	case s == RegWaitApprove && e == RegEventApproveNo:
		return RegWaitLowFloor
	case s == RegWaitApprove && e == RegEventExists:
		return RegWaitUpdate
	case s == RegWaitUpdate && e == RegEventUpdateAnswered:
		return RegReady
	default:
		return s
	}
}

// SignupState is a step of the resident sign-up workflow.
type SignupState int

const (
	SignReady SignupState = iota
	SignWaitConsent
	SignWaitFloor
	SignWaitApart
	SignWaitApprove
)

// SignupEvent is an input to the sign-up machine.
type SignupEvent int

const (
	SignEventStart SignupEvent = iota
	SignEventConsentYes
	SignEventConsentNo
	SignEventFloorChosen
	SignEventApartChosen
	SignEventApproveYes
	SignEventApproveNo
)

// NextSignupState applies one event to the sign-up machine. Declined consent
// terminates the workflow.
func NextSignupState(s SignupState, e SignupEvent) SignupState {
	switch {
	case e == SignEventStart:
		return SignWaitConsent
	case s == SignWaitConsent && e == SignEventConsentYes:
		return SignWaitFloor
	case s == SignWaitConsent && e == SignEventConsentNo:
		return SignReady
	case s == SignWaitFloor && e == SignEventFloorChosen:
		return SignWaitApart
	case s == SignWaitApart && e == SignEventApartChosen:
		return SignWaitApprove
	case s == SignWaitApprove && e == SignEventApproveYes:
		return SignReady
	case s == SignWaitApprove && e == SignEventApproveNo:
		return SignWaitFloor
	default:
		return s
	}
}

// VehicleState is a step of the vehicle registration workflow.
type VehicleState int

const (
	VehicleReady VehicleState = iota
	VehicleWaitNumber
	VehicleWaitModel
)

// VehicleEvent is an input to the vehicle machine.
type VehicleEvent int

const (
	VehicleEventStart VehicleEvent = iota
	VehicleEventNumber
	VehicleEventModel
)

// NextVehicleState applies one event to the vehicle machine.
func NextVehicleState(s VehicleState, e VehicleEvent) VehicleState {
	switch {
	case e == VehicleEventStart:
		return VehicleWaitNumber
	case s == VehicleWaitNumber && e == VehicleEventNumber:
		return VehicleWaitModel
	case s == VehicleWaitModel && e == VehicleEventModel:
		return VehicleReady
	default:
		return s
	}
}
