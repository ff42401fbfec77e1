/*
Package app links together all the various components
to construct the custodyd application.
*/
package app

import (
	"path/filepath"
	"strings"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store/iavl"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/metadata"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/staking"
	"github.com/iov-one/custody/x/token"
	"github.com/iov-one/custody/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the typical authentication: public key signatures
// of the transaction and authorities derived by the programs.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, custody.AuthorityAuth{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, metrics and recovery. metrics may be nil.
func Chain(metrics *utils.Metrics) app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to all custody programs.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	token.RegisterRoutes(r, authFn)
	metadata.RegisterRoutes(r, authFn)
	escrow.RegisterRoutes(r, authFn)
	staking.RegisterRoutes(r, authFn)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into a Runner.
func Stack(metrics *utils.Metrics) custody.Handler {
	authFn := Authenticator()
	return Chain(metrics).WithHandler(Router(authFn))
}

// Initializers returns the genesis loaders in the order their sections
// depend on each other.
func Initializers() custody.Initializer {
	return app.ChainInitializers(
		app.Wallets{},
		token.Initializer{},
		metadata.Initializer{},
		staking.Initializer{},
	)
}

// CommitKVStore returns an initialized store that persists
// the data to the named path.
func CommitKVStore(dbPath string) (iavl.CommitStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewMemCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return iavl.CommitStore{}, errors.Wrapf(errors.ErrInvalidInput, "invalid database name: %s", dbPath)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}

// NewRunner opens the store at dbPath and returns a Runner executing the
// standard stack.
func NewRunner(dbPath string, metrics *utils.Metrics, logger log.Logger) (*app.Runner, error) {
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return nil, err
	}
	return app.NewRunner(kv, Stack(metrics), logger)
}
