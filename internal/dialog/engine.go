package dialog

import (
	"time"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/house"
	"github.com/DenDmitriev/ConciergeChatBot/internal/messaging"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
	"github.com/DenDmitriev/ConciergeChatBot/internal/store"
	"github.com/DenDmitriev/ConciergeChatBot/internal/texts"
)

// Callback patterns and parameter names carried in button payloads.
const (
	patternRegistration    = "registration"
	patternEditHouse       = "editHouse"
	patternSign            = "sign"
	patternAccount         = "account"
	patternNeighbor        = "neighbor"
	patternParking         = "parking"
	patternAdmin           = "admin"
	patternIsRight         = "isRight"
	patternUpdate          = "update"
	patternConsent         = "storagePersonalData"
	patternFloor           = "floor"
	patternApart           = "apart"
	patternLook            = "look"
	patternCheckOut        = "checkOut"
	patternBlocked         = "blocked"
	patternAddBlockedAuto  = "addBlockedAuto"
	patternAddResidentAuto = "addResidentAuto"
	patternSearchApart     = "apartment"
	patternSearchCar       = "car"
	patternUpstairs        = "upstairs"
	patternDownstairs      = "downstairs"

	queryChatID  = "chatId"
	queryFloor   = "floor"
	queryApart   = "apart"
	queryIsRight = "isRight"
	queryUpdate  = "update"
	queryConsent = "storagePersonalData"
)

// ConciergeCommand invokes the main menu in private and group chats.
const ConciergeCommand = "/concierge"

// Engine drives all workflows. It holds per-user dialog states and drafts in
// injectable caches and talks to the chat through messaging.Service.
type Engine struct {
	store     store.Store
	service   messaging.Service
	listeners *messaging.ListenerRegistry
	houses    *house.Manager
	texts     *texts.Catalog
	now       func() time.Time

	regStates  Cache[RegistrationState]
	regDrafts  Cache[models.DraftHouse]
	signStates Cache[SignupState]
	signDrafts Cache[models.DraftResident]
	autoStates Cache[VehicleState]
	autoDrafts Cache[models.DraftVehicle]
}

// Opts holds configuration options for the dialog engine.
type Opts struct {
	// Now supplies the current time; defaults to time.Now. Blocked-vehicle
	// expiry tests inject a fixed clock here.
	Now func() time.Time
}

// Option configures the dialog engine.
type Option func(*Opts)

// WithNow overrides the engine's clock.
func WithNow(now func() time.Time) Option {
	return func(o *Opts) {
		o.Now = now
	}
}

// NewEngine creates the dialog engine over a store, a chat transport and a
// listener registry.
func NewEngine(st store.Store, svc messaging.Service, listeners *messaging.ListenerRegistry, catalog *texts.Catalog, opts ...Option) *Engine {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:      st,
		service:    svc,
		listeners:  listeners,
		houses:     house.NewManager(st),
		texts:      catalog,
		now:        now,
		regStates:  NewMemoryCache[RegistrationState](),
		regDrafts:  NewMemoryCache[models.DraftHouse](),
		signStates: NewMemoryCache[SignupState](),
		signDrafts: NewMemoryCache[models.DraftResident](),
		autoStates: NewMemoryCache[VehicleState](),
		autoDrafts: NewMemoryCache[models.DraftVehicle](),
	}
}

// Register wires every command and callback pattern into the dispatcher.
func (e *Engine) Register(d *messaging.Dispatcher) {
	d.HandleCommand(ConciergeCommand, e.handleConcierge)
	d.HandleFallback(e.handleUnrecognized)

	d.HandleCallback(patternRegistration, e.handleRegistrationStart)
	d.HandleCallback(patternEditHouse, e.handleEditHouseStart)
	d.HandleCallback(patternIsRight, e.handleIsRight)
	d.HandleCallback(patternUpdate, e.handleHouseUpdateAnswer)

	d.HandleCallback(patternSign, e.handleSignupStart)
	d.HandleCallback(patternConsent, e.handleConsentAnswer)
	d.HandleCallback(patternFloor, e.handleFloorChosen)
	d.HandleCallback(patternApart, e.handleApartChosen)

	d.HandleCallback(patternAdmin, e.handleAdminArea)
	d.HandleCallback(patternAccount, e.handleAccountArea)
	d.HandleCallback(patternLook, e.handleLook)
	d.HandleCallback(patternCheckOut, e.handleCheckOut)

	d.HandleCallback(patternNeighbor, e.handleNeighborArea)
	d.HandleCallback(patternSearchApart, e.handleSearchByApart)
	d.HandleCallback(patternSearchCar, e.handleSearchByCar)
	d.HandleCallback(patternUpstairs, e.handleSearchUpstairs)
	d.HandleCallback(patternDownstairs, e.handleSearchDownstairs)

	d.HandleCallback(patternParking, e.handleParkingArea)
	d.HandleCallback(patternBlocked, e.handleBlockedList)
	d.HandleCallback(patternAddBlockedAuto, e.handleAddBlockedVehicle)
	d.HandleCallback(patternAddResidentAuto, e.handleAddVehicleStart)
}

func (e *Engine) yes() string {
	return e.texts.Get("button.yes")
}

func (e *Engine) no() string {
	return e.texts.Get("button.no")
}

// confirmRows builds the Да/Нет keyboard for a confirmation pattern whose
// answer travels in the named parameter.
func (e *Engine) confirmRows(pattern, query string) [][]models.Button {
	return [][]models.Button{
		models.ButtonRow(e.yes(), callback.Encode(pattern, query, e.yes())),
		models.ButtonRow(e.no(), callback.Encode(pattern, query, e.no())),
	}
}
