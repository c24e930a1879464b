package user

// User is the portal account acting on allowance claims. Accounts are managed outside this
// service; only the fields needed to attribute adjustments are read here.
type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
}
