package user

// User represents a user entity in the system.
type User struct {
	ID    int64  // ID is assigned by the store; zero until the row exists
	Name  string // Name is the full name of the user
	Email string // Email is stored as given, with no uniqueness check
}
