package engine

import (
	"errors"

	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/street"
)

// Errors returned by Simulation commands. Recoverable errors leave the game
// state untouched.
var (
	ErrInsufficientResources = economy.ErrInsufficientResources
	ErrInsufficientFunds     = economy.ErrInsufficientFunds
	ErrInvalidAmount         = economy.ErrInvalidAmount
	ErrLoanLimit             = economy.ErrLoanLimit
	ErrLotOccupied           = street.ErrLotOccupied
	ErrInvalidStreetIndex    = street.ErrInvalidStreetIndex
	ErrLotOutOfRange         = street.ErrLotOutOfRange

	ErrInvalidBuildingKind = errors.New("invalid building kind")
	ErrBuildingNotFound    = errors.New("building not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrNoVacancy           = errors.New("no vacant unit")
	ErrInvalidRole         = errors.New("role not available for this building")
	ErrInvalidSpeed        = errors.New("speed must be 1, 2 or 3")
	ErrShopClosed          = errors.New("shop closed")
	ErrOutOfStock          = errors.New("out of stock")
	ErrNoTableAvailable    = errors.New("no table available")
	ErrNoRoomAvailable     = errors.New("no room available")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrNotApplicable       = errors.New("not applicable to this building")
	ErrInvalidSnapshot     = errors.New("invalid snapshot")
)
