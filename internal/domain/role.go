package domain

// Role enumerates caller roles supplied by the identity collaborator.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleBox     Role = "BOX"
	RoleIntake  Role = "INTAKE"
	RoleDisplay Role = "DISPLAY"
)
