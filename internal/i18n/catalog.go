package i18n

// Message keys sent by the lifecycle controllers and the reminder sweeper.
const (
	KeyApplicantCreated     = "applicant_created"
	KeyWorkerSelected       = "worker_selected"
	KeyApplicationRejected  = "application_rejected"
	KeyApplicationCancelled = "application_cancelled"
	KeyOrderFilled          = "order_filled"
	KeyOrderUpdated         = "order_updated"
	KeyOrderCancelled       = "order_cancelled"
	KeyOrderCompleted       = "order_completed"
	KeyWorkReminder         = "work_reminder"
	KeyCompleteWorkReminder = "complete_work_reminder"
)

type template struct {
	title string
	body  string
}

// catalog is keyed by base language, then message key. Placeholders use
// {name} syntax.
var catalog = map[string]map[string]template{
	"ru": {
		KeyApplicantCreated:     {"Новый отклик", "{worker} откликнулся на заказ «{order}»"},
		KeyWorkerSelected:       {"Вас выбрали исполнителем", "Заказ «{order}» на {date}"},
		KeyApplicationRejected:  {"Отклик отклонён", "Ваш отклик на заказ «{order}» отклонён"},
		KeyApplicationCancelled: {"Отклик отозван", "{worker} отозвал отклик на заказ «{order}»"},
		KeyOrderFilled:          {"Все исполнители выбраны", "Заказ «{order}» переведён в работу"},
		KeyOrderUpdated:         {"Заказ изменён", "Заказчик обновил заказ «{order}»"},
		KeyOrderCancelled:       {"Заказ отменён", "Заказ «{order}» отменён заказчиком"},
		KeyOrderCompleted:       {"Заказ завершён", "Заказ «{order}» отмечен как выполненный"},
		KeyWorkReminder:         {"Напоминание о работе", "Завтра {date} в {time}: «{order}»"},
		KeyCompleteWorkReminder: {"Завершите заказ", "Подтвердите выполнение заказа «{order}» и оставьте отзыв"},
	},
	"en": {
		KeyApplicantCreated:     {"New application", "{worker} applied to \"{order}\""},
		KeyWorkerSelected:       {"You were selected", "Order \"{order}\" on {date}"},
		KeyApplicationRejected:  {"Application declined", "Your application to \"{order}\" was declined"},
		KeyApplicationCancelled: {"Application withdrawn", "{worker} withdrew from \"{order}\""},
		KeyOrderFilled:          {"All workers selected", "Order \"{order}\" is now in progress"},
		KeyOrderUpdated:         {"Order updated", "The customer updated \"{order}\""},
		KeyOrderCancelled:       {"Order cancelled", "The customer cancelled \"{order}\""},
		KeyOrderCompleted:       {"Order completed", "Order \"{order}\" was marked as completed"},
		KeyWorkReminder:         {"Work reminder", "Tomorrow {date} at {time}: \"{order}\""},
		KeyCompleteWorkReminder: {"Complete your order", "Confirm that \"{order}\" is done and leave a review"},
	},
	"kk": {
		KeyApplicantCreated:     {"Жаңа өтінім", "{worker} «{order}» тапсырысына өтінім берді"},
		KeyWorkerSelected:       {"Сіз орындаушы болып таңдалдыңыз", "«{order}» тапсырысы, {date}"},
		KeyApplicationRejected:  {"Өтінім қабылданбады", "«{order}» тапсырысына өтініміңіз қабылданбады"},
		KeyApplicationCancelled: {"Өтінім қайтарылды", "{worker} «{order}» тапсырысынан бас тартты"},
		KeyOrderFilled:          {"Барлық орындаушылар таңдалды", "«{order}» тапсырысы жұмысқа өтті"},
		KeyOrderUpdated:         {"Тапсырыс өзгертілді", "Тапсырыс беруші «{order}» тапсырысын жаңартты"},
		KeyOrderCancelled:       {"Тапсырыс тоқтатылды", "Тапсырыс беруші «{order}» тапсырысын тоқтатты"},
		KeyOrderCompleted:       {"Тапсырыс аяқталды", "«{order}» тапсырысы орындалды деп белгіленді"},
		KeyWorkReminder:         {"Жұмыс туралы еске салу", "Ертең {date}, {time}: «{order}»"},
		KeyCompleteWorkReminder: {"Тапсырысты аяқтаңыз", "«{order}» орындалғанын растап, пікір қалдырыңыз"},
	},
}
