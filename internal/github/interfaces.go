package github

// RepositoryInfo defines repository information interface
type RepositoryInfo interface {
	GetOwner() string
	GetName() string
}

// Ensure RawRef implements RepositoryInfo interface
var _ RepositoryInfo = RawRef{}
