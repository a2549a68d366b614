package dbx

// DbShard is the key identifying one database (shard) of an application.
//
// An application talking to several databases keeps one connection pool per shard, and
// optionally a second one per shard for its read replica.
type DbShard string
