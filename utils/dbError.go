package utils

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// IsDuplicateEntryError reports a MySQL unique-constraint violation (1062).
// Check-then-insert validations can still race; the constraint is the final
// arbiter and this maps its failure back onto the taxonomy.
func IsDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
