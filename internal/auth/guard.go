package auth

// Page names are the paths the storefront serves.
const (
	PageIndex    = "index.html"
	PageLogin    = "login.html"
	PageRegister = "cadastro.html"
	PageHome     = "home.html"
	PageProducts = "produtos.html"
	PageCart     = "carrinho.html"
	PageCheckout = "checkout.html"
	PageOrder    = "pedido-detalhes.html"
	PageProfile  = "perfil.html"
)

type access int

const (
	public access = iota
	guestOnly
	membersHome
	membersLogin
)

var pageAccess = map[string]access{
	PageIndex:    guestOnly,
	PageLogin:    guestOnly,
	PageRegister: guestOnly,
	PageHome:     membersHome,
	PageProfile:  membersHome,
	PageProducts: public,
	PageCart:     membersLogin,
	PageCheckout: membersLogin,
	PageOrder:    membersLogin,
}

// Guard returns where a visitor of page must be sent instead, or "" when the
// page may be served. It runs before the page fetches anything.
func Guard(page string, authenticated bool) string {
	switch pageAccess[page] {
	case guestOnly:
		if authenticated {
			return PageHome
		}
	case membersHome:
		if !authenticated {
			return PageIndex
		}
	case membersLogin:
		if !authenticated {
			return PageLogin
		}
	}
	return ""
}
