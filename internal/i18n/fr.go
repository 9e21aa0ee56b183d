package i18n

var fr = map[string]string{
	// Common
	"app.name":    "Health Data Safe",
	"app.tagline": "Sécurisé par HDS",

	// Auth
	"auth.login":              "Se connecter",
	"auth.register":           "Créer un compte",
	"auth.logout":             "Se déconnecter",
	"auth.email":              "Email",
	"auth.username":           "Nom d'utilisateur",
	"auth.password":           "Mot de passe",
	"auth.confirmPassword":    "Confirmer le mot de passe",
	"auth.welcomeBack":        "Bienvenue",
	"auth.signInWith":         "Connectez-vous avec votre compte HDS",
	"auth.createAccount":      "Créer un compte HDS",
	"auth.createNewAccount":   "Créez votre nouveau compte Health Data Safe",
	"auth.dontHaveAccount":    "Vous n'avez pas de compte?",
	"auth.alreadyHaveAccount": "Vous avez déjà un compte?",
	"auth.emailOrUsername":    "Email ou nom d'utilisateur",
	"auth.errorLogin":         "Échec de la connexion. Veuillez vérifier vos identifiants.",
	"auth.errorRegister":      "Échec de l'inscription. Veuillez réessayer.",
	"auth.loginSuccess":       "Connexion réussie !",
	"auth.registerSuccess":    "Compte créé avec succès !",
	"auth.loggedOut":          "Vous avez été déconnecté",

	// Navigation
	"nav.connections": "Connexions",
	"nav.chat":        "Discussion",
	"nav.diary":       "Journal",
	"nav.tasks":       "Tâches",
	"nav.settings":    "Paramètres",

	// Messages
	"message.noMessages":          "Pas encore de messages. Commencez une conversation!",
	"message.typeMessage":         "Tapez un message...",
	"message.sendFailed":          "Échec de l'envoi du message. Veuillez réessayer.",
	"message.conversationStarted": "Nouvelle conversation démarrée",
	"message.formRequest":         "Pourriez-vous remplir ce formulaire {{.form}} ?",

	// Settings
	"settings.title":    "Paramètres",
	"settings.subtitle": "Gérez votre compte et les préférences de l'application.",

	// Connections
	"connections.add":           "Ajouter une connexion",
	"connections.search":        "Rechercher...",
	"connections.noConnections": "Aucune connexion trouvée",

	// Misc
	"misc.loading":           "Chargement...",
	"misc.underConstruction": "Cette page est en construction.",
	"misc.returnHome":        "Retour à l'accueil",
	"misc.secureHealth":      "Sécurisez vos données de santé avec un chiffrement de bout en bout et la confidentialité des données.",
}
