package i18n

var en = map[string]string{
	// Common
	"app.name":    "Health Data Safe",
	"app.tagline": "Secured by HDS",

	// Auth
	"auth.login":              "Sign In",
	"auth.register":           "Create Account",
	"auth.logout":             "Sign out",
	"auth.email":              "Email",
	"auth.username":           "Username",
	"auth.password":           "Password",
	"auth.confirmPassword":    "Confirm Password",
	"auth.welcomeBack":        "Welcome back",
	"auth.signInWith":         "Sign in using your HDS account",
	"auth.createAccount":      "Create a HDS account",
	"auth.createNewAccount":   "Create your new Health Data Safe account",
	"auth.dontHaveAccount":    "Don't have an account?",
	"auth.alreadyHaveAccount": "Already have an account?",
	"auth.emailOrUsername":    "Email or Username",
	"auth.errorLogin":         "Failed to sign in. Please check your credentials.",
	"auth.errorRegister":      "Registration failed. Please try again.",
	"auth.loginSuccess":       "Logged in successfully!",
	"auth.registerSuccess":    "Account created successfully!",
	"auth.loggedOut":          "You've been logged out",

	// Navigation
	"nav.connections": "Connections",
	"nav.chat":        "Chat",
	"nav.diary":       "Diary",
	"nav.tasks":       "Tasks",
	"nav.settings":    "Settings",

	// Messages
	"message.noMessages":          "No messages yet. Start a conversation!",
	"message.typeMessage":         "Type a message...",
	"message.sendFailed":          "Failed to send message. Please try again.",
	"message.conversationStarted": "Started new conversation",
	"message.formRequest":         "Could you please fill out this {{.form}} form?",
	"message.autoReply":           "This is an automated response to your message: \"{{.content}}\"",

	// Settings
	"settings.title":    "Settings",
	"settings.subtitle": "Manage your account and application preferences.",

	// Connections
	"connections.add":           "Add Connection",
	"connections.search":        "Search...",
	"connections.noConnections": "No connections found",

	// Misc
	"misc.loading":           "Loading...",
	"misc.underConstruction": "This page is under construction.",
	"misc.returnHome":        "Return to Home",
	"misc.secureHealth":      "Secure health data with end-to-end encryption and data privacy.",
}
