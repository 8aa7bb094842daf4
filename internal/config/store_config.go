package config

const (
	storeDriverVar   = "STORE_DRIVER"
	databaseURLVar   = "DATABASE_URL"
	mongoURIVar      = "MONGO_URI"
	mongoDatabaseVar = "MONGO_DATABASE"

	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetDatabaseURL() string
	GetMongoURI() string
	GetMongoDatabase() string
}

type Store struct {
	src *source
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return s.src.get(storeDriverVar, StoreDriverSQLite)
}

// GetDatabaseURL is the SQL DSN. For sqlite it defaults to a file in the data folder.
func (s Store) GetDatabaseURL() string {
	return s.src.get(databaseURLVar, "file:"+EnvVars(s).dataPath("connectspace.db")+"?_pragma=busy_timeout(5000)")
}

func (s Store) GetMongoURI() string {
	return s.src.get(mongoURIVar, "mongodb://localhost:27017")
}

func (s Store) GetMongoDatabase() string {
	return s.src.get(mongoDatabaseVar, "connectspace")
}
