/*
Package store persists workflow records for crash-safe resumption.

One record exists per workflow id: the executable DAG, the originating
intent, the index of the last completed layer and a state snapshot. Records
carry a rolling one-hour TTL refreshed on every save, touch and
continuation; expired records are invisible to readers.

Two RecordStore implementations are provided: GormStore (sqlite, postgres
or mysql through GORM) filters expiry at read time and removes expired rows
with Cleanup; RedisStore leans on native key expiry.
*/
package store
