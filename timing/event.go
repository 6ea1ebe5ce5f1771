package timing

// An Actor is an independently paced participant of the simulation. It is
// activated when the event it requested from the Clock fires.
//
// Actors are used as map keys, so implementations must be comparable;
// pointer receivers are the norm.
type Actor interface {
	Handle(evt Event) error
}

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() DateTime
}

// Event is a request of an actor to be activated at a future instant.
type Event struct {
	Time  DateTime
	Actor Actor

	seq   uint64
	index int
}
