package service

// User-facing WhatsApp replies. Wording and emoji follow the marketplace's
// Spanish copy; leads are shown with '+' re-added to the client phone.
const (
	msgContactDetails = "✅ *Datos del Cliente:*\n\n👤 %s\n📞 +%s\n✉ %s"

	msgPurchaseSuccess = "🎉 *Compra Exitosa*\nNuevo saldo: %d\n\nDatos:\n🏢 %s\n👤 %s\n📞 +%s\n✉ %s\n📝 %s"

	msgInsufficientBalance = "❌ Saldo insuficiente."

	// Shared on purpose between a missing lead and a non-approved service:
	// the reply must not reveal which gate rejected the sender.
	msgNotAuthorized = "❌ No estás autorizado para este servicio o la cotización expiró."

	msgVerificationCode = "🔐 Tu código de verificación: *%s*"

	msgEmailCodeSent = "✉ Código enviado a tu email."

	// companyFallback replaces an empty client company in purchase replies.
	companyFallback = "Particular"
)
