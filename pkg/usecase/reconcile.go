package usecase

// MutationKind names every write the client can issue.
type MutationKind int

const (
	MutationCartAdd MutationKind = iota + 1
	MutationCartRemove
	MutationProductCreate
	MutationProductDelete
	MutationOrderCreate
	MutationOrderPay
)

func (k MutationKind) String() string {
	switch k {
	case MutationCartAdd:
		return "cart_add"
	case MutationCartRemove:
		return "cart_remove"
	case MutationProductCreate:
		return "product_create"
	case MutationProductDelete:
		return "product_delete"
	case MutationOrderCreate:
		return "order_create"
	case MutationOrderPay:
		return "order_pay"
	default:
		return "unknown"
	}
}

// Resource is a view-state container that can be re-read.
type Resource int

const (
	ResourceProducts Resource = iota + 1
	ResourceOrders
	ResourceBills
	ResourceCart
)

func (r Resource) String() string {
	switch r {
	case ResourceProducts:
		return "products"
	case ResourceOrders:
		return "orders"
	case ResourceBills:
		return "bills"
	case ResourceCart:
		return "cart"
	default:
		return "unknown"
	}
}

// RefetchSet tells the dashboard what to do once a write settles.
// PatchCartLocally marks the cart-removal exception: the matching line is
// decremented or dropped in place and nothing is re-read.
type RefetchSet struct {
	Refetch          []Resource
	PatchCartLocally bool
}

// Has reports whether r must be re-read.
func (s RefetchSet) Has(r Resource) bool {
	for _, v := range s.Refetch {
		if v == r {
			return true
		}
	}
	return false
}

// ReconcileAfter is the consistency policy applied on settlement, whatever the outcome of the write.
func ReconcileAfter(kind MutationKind) RefetchSet {
	switch kind {
	case MutationCartAdd:
		return RefetchSet{Refetch: []Resource{ResourceCart}}
	case MutationCartRemove:
		return RefetchSet{PatchCartLocally: true}
	case MutationProductCreate, MutationProductDelete:
		return RefetchSet{Refetch: []Resource{ResourceProducts}}
	case MutationOrderCreate:
		return RefetchSet{Refetch: []Resource{ResourceOrders}}
	case MutationOrderPay:
		return RefetchSet{Refetch: []Resource{ResourceOrders, ResourceBills}}
	default:
		return RefetchSet{}
	}
}
