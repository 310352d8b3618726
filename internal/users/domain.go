package users

// User is the public view of an account. Password material never leaves the
// repository layer.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
}
