package sink

// test hooks
var (
	NewMongoFunc    = newMongo
	DatabaseFromURI = databaseFromURI
)
