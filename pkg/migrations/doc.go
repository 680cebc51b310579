// Package migrations applies SQL migrations with golang-migrate, recording
// them in the history table named by the resolved registration.
//
//	reg, err := db.NewFactory(cfg, db.Options{MigrationsSource: "db/migrations"}).Resolve()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner, err := migrations.Open(reg, nil, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//	err = runner.Up()
//
// Migration files follow golang-migrate naming: 1_create_orders.up.sql,
// 1_create_orders.down.sql.
package migrations
