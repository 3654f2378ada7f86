package repositories

// RepositoryProvider holds what services need from the persistence layer.
type RepositoryProvider struct {
	// TxManager opens atomic sessions for every mutating operation.
	TxManager TransactionManager
	// Reader serves plain reads that do not need a session.
	Reader Store
}
