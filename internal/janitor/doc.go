// Package janitor удаляет забытые working copies.
//
// Сервис удаляет working copy в конце каждого запроса, но если процесс
// упал посреди запроса, копия остаётся на платформе, а её сессия в статусе
// OPEN. Janitor по расписанию находит OPEN сессии старше TTL, удаляет их
// working copies и переводит сессии в EXPIRED.
//
// Использование:
//
//	j := janitor.New(janitor.Config{
//	    Sessions: sessionRepo,
//	    Platform: platformClient,
//	    TTL:      30 * time.Minute,
//	    Locker:   repo.NewAdvisoryLock(pool, janitorLockKey),
//	    Logger:   logger,
//	})
//	err := j.Run(ctx, "*/5 * * * *")
//
// Leader election:
//
// Tick выполняется только экземпляром, который держит Locker
// (pg_try_advisory_lock); остальные пропускают тики.
package janitor
